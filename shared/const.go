package shared

import "time"

const (
	OperatorSubject = "operator_subject"

	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100

	DefaultHistoryPage    = 1
	DefaultHistoryPerPage = 10

	// DistributionSlots is the number of winners a prize round needs.
	DistributionSlots = 3

	// TimeLayout is fixed-width so stored timestamps also sort lexicographically.
	TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

	// LegacyTimeLayout matches naive ISO-8601 timestamps written by older stations.
	LegacyTimeLayout = "2006-01-02T15:04:05"

	StreamPingInterval = 15 * time.Second
)

const (
	OracleUnavailableReply = "Désolé, je n'ai pas pu générer une réponse. Veuillez réessayer."
	InsufficientPlayersMsg = "Not enough eligible players for the distribution"
)
