package observability

import (
	"encoding/json"

	"github.com/leslieo2/go-fullstack-starter/internal/constants"
)

// HealthStatus is the payload of the health route. It carries no
// timestamps or counters so every response is byte-for-byte identical.
type HealthStatus struct {
	Status string `json:"status"`
}

// Healthy returns the only status the API host reports.
func Healthy() HealthStatus {
	return HealthStatus{Status: constants.HealthStatusHealthy}
}

// HealthBody returns the encoded healthy payload: {"status":"healthy"}.
func HealthBody() []byte {
	body, err := json.Marshal(Healthy())
	if err != nil {
		// a struct with one string field always marshals
		panic(err)
	}
	return body
}
