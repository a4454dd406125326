package http

import (
	"gorm.io/gorm"

	"vendorflow/internal/infrastructure/repository"
)

type repositories struct {
	ticket       *repository.TicketRepository
	conversation *repository.ConversationRepository
	vendor       *repository.VendorRepository
	discovery    *repository.DiscoveryResultRepository
	outreach     *repository.OutreachRepository
	emailMapping *repository.EmailMappingRepository
	quote        *repository.QuoteRepository
	callLog      *repository.CallLogRepository
}

func newRepositories(db *gorm.DB) *repositories {
	return &repositories{
		ticket:       repository.NewTicketRepository(db),
		conversation: repository.NewConversationRepository(db),
		vendor:       repository.NewVendorRepository(db),
		discovery:    repository.NewDiscoveryResultRepository(db),
		outreach:     repository.NewOutreachRepository(db),
		emailMapping: repository.NewEmailMappingRepository(db),
		quote:        repository.NewQuoteRepository(db),
		callLog:      repository.NewCallLogRepository(db),
	}
}
