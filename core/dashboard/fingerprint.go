package dashboard

import (
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/health"
)

// Fingerprint keys a health breakdown by the client, the day and a hash of every input that can change the score.
// Any write to the client's items changes the hash, so stale entries are never read back.
func Fingerprint(in health.Input, today core.Date) string {
	d := xxhash.New()
	enc := json.NewEncoder(d)

	_, _ = d.WriteString(today.String())
	for _, impl := range in.Tech {
		_ = enc.Encode([]interface{}{impl.ID, impl.Status, impl.Progress, impl.TargetDate})
	}
	_, _ = d.WriteString("|bi|")
	for _, cp := range in.BI {
		_ = enc.Encode([]interface{}{cp.ID, cp.Status, cp.Progress, cp.TargetDate})
	}
	_, _ = d.WriteString("|process|")
	for _, s := range in.Surveys {
		_ = enc.Encode([]interface{}{s.ID, s.SubScores()})
	}
	return in.Client.ID + ":" + strconv.FormatUint(d.Sum64(), 16)
}
