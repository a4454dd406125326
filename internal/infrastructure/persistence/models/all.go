package models

// All returns every persisted model, in the order AutoMigrate should create them.
func All() []any {
	return []any{
		&TicketModel{},
		&ConversationMessageModel{},
		&VendorModel{},
		&DiscoveryResultModel{},
		&VendorOutreachModel{},
		&EmailMappingModel{},
		&VendorQuoteModel{},
		&VendorCallLogModel{},
	}
}
