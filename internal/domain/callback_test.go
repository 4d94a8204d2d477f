package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Callback
		wantErr error
	}{
		{"group", `{"type":"group","group":"chat:oc_1"}`, &Callback{Type: CallbackGroup, Group: "chat:oc_1"}, nil},
		{"dm with account", `{"type":"DM","dm":"user:ou_1","account":"bot2"}`, &Callback{Type: CallbackDM, DM: "user:ou_1", Account: "bot2"}, nil},
		{"wake", `{"type":"wake"}`, &Callback{Type: CallbackWake}, nil},
		{"group without address", `{"type":"group"}`, nil, ErrNoRecipient},
		{"unknown type", `{"type":"email"}`, nil, ErrInvalidCallbackType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCallback([]byte(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCallback_Malformed(t *testing.T) {
	_, err := ParseCallback([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestCallback_Apply(t *testing.T) {
	group := &Callback{Type: CallbackGroup, Group: "chat:g"}
	dm := &Callback{Type: CallbackDM, DM: "user:d", Account: "bot2"}

	assert.Equal(t, "chat:g", group.Apply(Recipients{}).CallbackGroup)
	assert.Equal(t, "chat:explicit", group.Apply(Recipients{CallbackGroup: "chat:explicit"}).CallbackGroup, "explicit wins")

	r := dm.Apply(Recipients{Primary: "chat:p"})
	assert.Equal(t, Recipients{Primary: "chat:p", CallbackDM: "user:d", DMAccount: "bot2"}, r)

	assert.Equal(t, Recipients{Primary: "p"}, (&Callback{Type: CallbackWake}).Apply(Recipients{Primary: "p"}))

	var none *Callback
	assert.Equal(t, Recipients{Primary: "p"}, none.Apply(Recipients{Primary: "p"}))
}
