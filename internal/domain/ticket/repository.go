package ticket

import "context"

// Repository persists tickets. GetByID returns nil, nil when the ticket does not exist.
type Repository interface {
	GetByID(ctx context.Context, ticketID string) (*Ticket, error)
	Save(ctx context.Context, t *Ticket) error
	Update(ctx context.Context, t *Ticket) error
}

type ConversationRepository interface {
	Append(ctx context.Context, message *ConversationMessage) error
	ListByTicket(ctx context.Context, ticketID string) ([]*ConversationMessage, error)
}
