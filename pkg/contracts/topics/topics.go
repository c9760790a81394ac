package topics

const (
	// Bets
	BetPlaced  = "bet_placed"
	BetSettled = "bet_settled"

	// Results
	ResultDeclared     = "result_declared"
	TossResultDeclared = "toss_result_declared"

	// DLQs
	BetPlacedDLQ      = "bet_placed_dlq"
	ResultDeclaredDLQ = "result_declared_dlq"
)
