package pipeline

// RunAcceptedResponse acknowledges a pipeline run started in the background.
type RunAcceptedResponse struct {
	TicketID  string `json:"ticket_id"`
	Operation string `json:"operation"`
	Status    string `json:"status"`
}

func accepted(ticketID, operation string) RunAcceptedResponse {
	return RunAcceptedResponse{TicketID: ticketID, Operation: operation, Status: "started"}
}
