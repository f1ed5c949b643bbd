package models

// FareBreakdown amounts are whole currency units.
// IsEstimate marks a locally computed fallback and must survive to the consumer.
type FareBreakdown struct {
	BaseFare      int64 `json:"baseFare"`
	NightCharge   int64 `json:"nightCharge"`
	ProtectionFee int64 `json:"protectionFee"`
	Total         int64 `json:"total"`
	IsEstimate    bool  `json:"isEstimate"`
}
