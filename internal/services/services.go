package services

import (
	"github.com/rsharda/bahikhata-api/internal/config"
	"github.com/rsharda/bahikhata-api/internal/jobs"
	"github.com/rsharda/bahikhata-api/internal/repository"

	"github.com/shopspring/decimal"
)

// Services holds all service instances
type Services struct {
	Account  *AccountService
	Interest *InterestService
	Payment  *PaymentService
	Risk     *RiskService
	Batch    *BatchService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config) *Services {
	riskCfg := DefaultRiskConfig()
	riskCfg.HighDebtThreshold = decimal.NewFromFloat(cfg.HighDebtThreshold)
	riskCfg.DelayGraceDays = cfg.DelayGraceDays
	riskCfg.FrequentDelayCount = cfg.FrequentDelays
	riskCfg.OnTimePaymentCount = cfg.OnTimePayments
	riskCfg.RecentEntryWindow = cfg.RecentEntryWindow

	interestSvc := NewInterestService()
	riskSvc := NewRiskService(repos.Account, repos.Ledger, repos.RiskFlag, riskCfg)
	paymentSvc := NewPaymentService(repos.Account, repos.Ledger, repos.Interest, riskSvc, worker)
	batchSvc := NewBatchService(repos.Account, repos.Interest, repos.Batch, interestSvc, riskSvc, worker)

	// One lock set for all mutating services, so a payment and the nightly
	// accrual on the same account serialize in-process instead of relying on
	// the version check alone.
	locks := newAccountLocks()
	riskSvc.locks = locks
	paymentSvc.locks = locks
	batchSvc.locks = locks

	return &Services{
		Account:  NewAccountService(repos.Account, repos.Ledger, repos.Interest),
		Interest: interestSvc,
		Payment:  paymentSvc,
		Risk:     riskSvc,
		Batch:    batchSvc,
	}
}
