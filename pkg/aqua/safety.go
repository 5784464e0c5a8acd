package aqua

import (
	"fmt"

	"liyu1981.xyz/aquapure-service/pkg/models"
)

const (
	MinSafePH          = 6.5
	MaxSafePH          = 8.5
	MaxSafeTurbidity   = 5.0
	StatusSafe         = "Water Is Safe"
	StatusUnsafe       = "Water Is Not Safe"
	ContaminationTitle = "⚠️ CONTAMINATION ALERT"
)

type Evaluation struct {
	Safe bool `json:"safe"`
}

// Evaluate classifies a reading. Safe requires pH within [6.5, 8.5] and
// turbidity strictly below 5 NTU.
func Evaluate(snapshot models.SensorSnapshot) Evaluation {
	return Evaluation{
		Safe: snapshot.PH >= MinSafePH && snapshot.PH <= MaxSafePH && snapshot.Turbidity < MaxSafeTurbidity,
	}
}

func (e Evaluation) Status() string {
	if e.Safe {
		return StatusSafe
	}
	return StatusUnsafe
}

func AlertMessage(snapshot models.SensorSnapshot) string {
	return fmt.Sprintf("Water is Unsafe! pH: %.1f | Turbidity: %.1f NTU", snapshot.PH, snapshot.Turbidity)
}
