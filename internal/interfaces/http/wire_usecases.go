package http

import (
	"gorm.io/gorm"

	deliveryusecases "vendorflow/internal/application/delivery/usecases"
	discoveryusecases "vendorflow/internal/application/discovery/usecases"
	outreachusecases "vendorflow/internal/application/outreach/usecases"
	"vendorflow/internal/application/pipeline"
	rankingusecases "vendorflow/internal/application/ranking/usecases"
	replyusecases "vendorflow/internal/application/reply/usecases"
	selectionusecases "vendorflow/internal/application/selection/usecases"
	ticketusecases "vendorflow/internal/application/ticket/usecases"
	verificationusecases "vendorflow/internal/application/verification/usecases"
	"vendorflow/internal/domain/shared/events"
	"vendorflow/internal/infrastructure/config"
	"vendorflow/internal/infrastructure/llm"
	"vendorflow/internal/shared/db"
	"vendorflow/internal/shared/logger"
)

const maxCallPollFailures = 3

type useCases struct {
	pipeline       pipeline.UseCases
	expireOutreach *outreachusecases.ExpireOutreachUseCase
	resumeCalls    *verificationusecases.ResumePendingCallsUseCase
}

func newUseCases(
	cfg *config.Config,
	gdb *gorm.DB,
	repos *repositories,
	a *adapters,
	publisher events.EventPublisher,
	log logger.Interface,
) *useCases {
	p := cfg.Pipeline
	drafter := llm.NewEmailDrafter(a.llm)

	advance := ticketusecases.NewAdvanceStatusUseCase(repos.ticket, log.Named("ticket.status"))

	discover := discoveryusecases.NewDiscoverVendorsUseCase(
		repos.ticket, repos.vendor, repos.discovery,
		a.matcher, a.web, advance, publisher,
		discoveryusecases.DiscoverVendorsConfig{
			SearchLimit:         p.SearchLimit,
			MatchLimit:          cfg.Semantic.Limit,
			ExtractPollInterval: p.ExtractPollInterval,
			ExtractTimeout:      p.ExtractTimeout,
			SoftDeadline:        p.DiscoverySoftDeadline(),
		},
		log.Named("discovery"),
	)

	verify := verificationusecases.NewVerifyContactUseCase(
		a.caller, repos.callLog,
		verificationusecases.VerifyContactConfig{
			PollInterval:    p.CallPollInterval,
			Timeout:         p.CallTimeout,
			MaxPollFailures: maxCallPollFailures,
		},
		log.Named("verification"),
	)
	stepper := verificationusecases.NewCallStepper(a.caller, repos.callLog, log.Named("verification.step"))

	outreach := outreachusecases.NewSendOutreachUseCase(
		repos.ticket, repos.conversation, repos.discovery, repos.vendor,
		repos.outreach, repos.emailMapping,
		verify, a.callBudget, drafter, a.renderer, a.sender, advance,
		outreachusecases.SendOutreachConfig{
			MaxVendors:  p.MaxOutreachVendors,
			Expiry:      p.OutreachExpiry(),
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
			ReplyDomain: cfg.Email.ReplyDomain,
		},
		log.Named("outreach"),
	)

	rank := rankingusecases.NewRankVendorsUseCase(
		repos.ticket, repos.quote, repos.vendor, repos.outreach, log.Named("ranking"),
	)

	selectVendor := selectionusecases.NewSelectVendorUseCase(
		repos.ticket, repos.conversation, repos.quote, repos.vendor, repos.emailMapping,
		db.NewTransactionManager(gdb), a.renderer, a.sender,
		selectionusecases.SelectVendorConfig{
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
			ReplyDomain: cfg.Email.ReplyDomain,
		},
		log.Named("selection"),
	)

	delivery := deliveryusecases.NewHandleDeliveryEventUseCase(
		repos.emailMapping, repos.vendor, repos.ticket, advance, log.Named("delivery"),
	)

	reply := replyusecases.NewHandleInboundReplyUseCase(
		repos.ticket, repos.conversation, repos.vendor, repos.outreach,
		repos.emailMapping, repos.quote,
		llm.NewQuoteParser(a.llm), drafter, a.renderer, a.sender, rank, advance,
		replyusecases.HandleInboundReplyConfig{
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
			ReplyDomain: cfg.Email.ReplyDomain,
		},
		log.Named("reply"),
	)

	return &useCases{
		pipeline: pipeline.UseCases{
			Discover: discover,
			Outreach: outreach,
			Rank:     rank,
			Select:   selectVendor,
			Delivery: delivery,
			Reply:    reply,
		},
		expireOutreach: outreachusecases.NewExpireOutreachUseCase(
			repos.outreach, repos.quote, p.QuoteValidity(), log.Named("outreach.expiry"),
		),
		resumeCalls: verificationusecases.NewResumePendingCallsUseCase(
			stepper, repos.callLog, repos.vendor, p.CallTimeout, log.Named("verification.resume"),
		),
	}
}
