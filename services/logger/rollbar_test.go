package logsvc

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/health"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/scope"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
)

var (
	ana   = user.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: user.RoleUser, ClientIDs: []string{"c1", "c2"}}
	admin = user.User{ID: "u0", Name: "Admin", Email: "admin@example.com", Role: user.RoleAdmin}
	acme  = client.Client{ID: "c1", Name: "Acme", ManagementGroup: "Retail"}
)

func TestNewEntry(t *testing.T) {
	boom, second := errors.New("boom"), errors.New("second")

	tests := []struct {
		name       string
		args       []interface{}
		wantErr    error
		wantPerson *user.User
		wantExtras map[string]interface{}
		wantOther  []interface{}
	}{
		{
			name:       "nothing",
			wantExtras: map[string]interface{}{},
		},
		{
			name:       "acting user carries role and assigned clients",
			args:       []interface{}{boom, ana},
			wantErr:    boom,
			wantPerson: &ana,
			wantExtras: map[string]interface{}{"user_role": user.RoleUser, "user_clients": []string{"c1", "c2"}},
		},
		{
			name:       "admins have no client list",
			args:       []interface{}{admin},
			wantPerson: &admin,
			wantExtras: map[string]interface{}{"user_role": user.RoleAdmin},
		},
		{
			name:       "only the first user is the person",
			args:       []interface{}{admin, ana},
			wantPerson: &admin,
			wantExtras: map[string]interface{}{"user_role": user.RoleAdmin},
		},
		{
			name:       "anonymous user is not a person",
			args:       []interface{}{user.User{}},
			wantExtras: map[string]interface{}{},
		},
		{
			name:       "scope context without a user",
			args:       []interface{}{&scope.UserContext{Role: user.RoleUser, AssignedClients: []string{"c9"}}},
			wantExtras: map[string]interface{}{"user_role": user.RoleUser, "user_clients": []string{"c9"}},
		},
		{
			name: "client and breakdown are flattened with extras maps",
			args: []interface{}{
				acme,
				health.Breakdown{Score: 42, Band: health.BandWarning},
				map[string]interface{}{"cache_key": "health:abc"},
				map[string]interface{}{"route": "/api/dashboard"},
			},
			wantExtras: map[string]interface{}{
				"client_id":        "c1",
				"client_name":      "Acme",
				"management_group": "Retail",
				"health_score":     42,
				"health_band":      "warning",
				"cache_key":        "health:abc",
				"route":            "/api/dashboard",
			},
		},
		{
			name:       "extra errors and unknown values are kept aside",
			args:       []interface{}{boom, second, 7, nil},
			wantErr:    boom,
			wantExtras: map[string]interface{}{},
			wantOther:  []interface{}{second, 7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEntry("msg", tt.args)
			assert.Equal(t, tt.wantErr, e.err)
			assert.Equal(t, tt.wantPerson, e.person)
			assert.Equal(t, tt.wantExtras, e.extras)
			if tt.wantOther == nil {
				assert.Empty(t, e.other)
			} else {
				require.Len(t, e.other, len(tt.wantOther))
				for i := range tt.wantOther {
					assert.Equal(t, tt.wantOther[i], e.other[i])
				}
			}
		})
	}
}

func TestEntry_rollbarArgs(t *testing.T) {
	boom := errors.New("boom")
	e := newEntry("scoring failed", []interface{}{acme, boom, map[string]interface{}{"cache_key": "k"}})

	args := e.rollbarArgs()
	require.Len(t, args, 3)
	assert.Equal(t, "scoring failed", args[0])
	assert.Equal(t, boom, args[1])
	// a single merged map, since rollbar keeps only the last one
	assert.Equal(t, map[string]interface{}{
		"client_id": "c1", "client_name": "Acme", "management_group": "Retail", "cache_key": "k",
	}, args[2])

	assert.Equal(t, []interface{}{"plain"}, newEntry("plain", nil).rollbarArgs())
}

func TestRollbarLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := NewRollbarLogger(log.New(buf, "", 0), core.NewTestConfig())

	t.Run("prints level, error, user and sorted extras", func(t *testing.T) {
		buf.Reset()
		logger.Error("health cache set: boom", errors.New("boom"), ana, acme)
		assert.True(t, strings.HasPrefix(buf.String(), "[ERROR] health cache set: boom\n  error: boom\n"), buf.String())
		assert.Contains(t, buf.String(), "  user: u1 <ana@example.com>\n")
		assert.Contains(t, buf.String(),
			"  client_id=c1 client_name=Acme management_group=Retail user_clients=[c1 c2] user_role=user\n")
	})

	t.Run("levels", func(t *testing.T) {
		buf.Reset()
		logger.Debug("d")
		logger.Info("i")
		logger.Warn("w", 3)
		assert.Equal(t, "[DEBUG] d\n[INFO] i\n[WARNING] w\n  3\n", buf.String())
	})
}
