package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/rsharda/bahikhata-api/internal/models"
)

// AccountFSM wraps an account with its status state machine.
//
// NPA is a sink for automatic transitions: once an account is marked NPA, no
// automatic event leaves that state. Only the manual Reinstate event does.
type AccountFSM struct {
	account *models.Account
	fsm     *fsm.FSM
}

// NewAccountFSM creates a new account status state machine
func NewAccountFSM(account *models.Account) *AccountFSM {
	afsm := &AccountFSM{
		account: account,
	}

	afsm.fsm = fsm.NewFSM(
		account.Status,
		fsm.Events{
			// active → blocked (manual no_further_credit flag)
			{Name: "block", Src: []string{models.AccountStatusActive}, Dst: models.AccountStatusBlocked},

			// active/blocked → npa (90+ days overdue, or manual npa flag)
			{Name: "mark_npa", Src: []string{models.AccountStatusActive, models.AccountStatusBlocked}, Dst: models.AccountStatusNPA},

			// blocked/npa → active (manual operator action only)
			{Name: "reinstate", Src: []string{models.AccountStatusBlocked, models.AccountStatusNPA}, Dst: models.AccountStatusActive},
		},
		fsm.Callbacks{},
	)

	return afsm
}

// Block transitions the account to blocked
func (a *AccountFSM) Block(ctx context.Context) error {
	if err := a.fsm.Event(ctx, "block"); err != nil {
		return fmt.Errorf("cannot block account in state %s: %w", a.account.Status, err)
	}

	a.account.Status = a.fsm.Current()
	return nil
}

// MarkNPA transitions the account to npa. Marking an account that is already
// npa is a no-op, matching the add-only nature of the npa flag.
func (a *AccountFSM) MarkNPA(ctx context.Context) error {
	if a.account.Status == models.AccountStatusNPA {
		return nil
	}

	if err := a.fsm.Event(ctx, "mark_npa"); err != nil {
		return fmt.Errorf("cannot mark account npa in state %s: %w", a.account.Status, err)
	}

	a.account.Status = a.fsm.Current()
	return nil
}

// Reinstate transitions a blocked or npa account back to active
func (a *AccountFSM) Reinstate(ctx context.Context) error {
	if err := a.fsm.Event(ctx, "reinstate"); err != nil {
		return fmt.Errorf("cannot reinstate account in state %s: %w", a.account.Status, err)
	}

	a.account.Status = a.fsm.Current()
	return nil
}

// Current returns the current state
func (a *AccountFSM) Current() string {
	return a.fsm.Current()
}

// Can checks if a transition is possible
func (a *AccountFSM) Can(event string) bool {
	return a.fsm.Can(event)
}
