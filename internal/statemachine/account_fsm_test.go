package statemachine

import (
	"context"
	"testing"

	"github.com/rsharda/bahikhata-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAccountFSM_BlockAndReinstate(t *testing.T) {
	account := &models.Account{Status: models.AccountStatusActive}
	afsm := NewAccountFSM(account)

	err := afsm.Block(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.AccountStatusBlocked, account.Status)

	err = afsm.Reinstate(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.AccountStatusActive, account.Status)
}

func TestAccountFSM_MarkNPA(t *testing.T) {
	account := &models.Account{Status: models.AccountStatusActive}
	afsm := NewAccountFSM(account)

	err := afsm.MarkNPA(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.AccountStatusNPA, account.Status)
}

func TestAccountFSM_MarkNPA_FromBlocked(t *testing.T) {
	account := &models.Account{Status: models.AccountStatusBlocked}
	afsm := NewAccountFSM(account)

	err := afsm.MarkNPA(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.AccountStatusNPA, account.Status)
}

func TestAccountFSM_MarkNPA_AlreadyNPA_NoOp(t *testing.T) {
	account := &models.Account{Status: models.AccountStatusNPA}
	afsm := NewAccountFSM(account)

	err := afsm.MarkNPA(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.AccountStatusNPA, account.Status)
}

func TestAccountFSM_NPAIsStickyForAutomaticEvents(t *testing.T) {
	account := &models.Account{Status: models.AccountStatusNPA}
	afsm := NewAccountFSM(account)

	// No automatic path out of npa; block is not allowed either.
	assert.False(t, afsm.Can("block"))
	assert.False(t, afsm.Can("mark_npa"))

	// Only the manual reinstate leaves npa.
	assert.True(t, afsm.Can("reinstate"))
}

func TestAccountFSM_CannotBlockNonActive(t *testing.T) {
	account := &models.Account{Status: models.AccountStatusNPA}
	afsm := NewAccountFSM(account)

	err := afsm.Block(context.Background())
	assert.Error(t, err)
	assert.Equal(t, models.AccountStatusNPA, account.Status)
}
