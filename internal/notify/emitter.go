package notify

import (
	"fmt"

	"github.com/expenso-dev/expenso/internal/types"
	"github.com/shopspring/decimal"
)

// Emitter turns successful financial mutations into notifications. It runs
// after the primary write has committed; callers log its error instead of
// propagating it, so a notification outage never blocks the CRUD response.
type Emitter struct {
	publisher *Publisher
}

func NewEmitter(publisher *Publisher) *Emitter {
	return &Emitter{publisher: publisher}
}

func (e *Emitter) ExpenseAdded(owner uint, description string, amount decimal.Decimal) error {
	return e.added(owner, types.CategoryExpense, description, amount)
}

func (e *Emitter) IncomeAdded(owner uint, description string, amount decimal.Decimal) error {
	return e.added(owner, types.CategoryIncome, description, amount)
}

// ExpenseUpdated emits only when the amount actually changed; edits that
// touch other fields stay silent.
func (e *Emitter) ExpenseUpdated(owner uint, description string, previous, amount decimal.Decimal) error {
	return e.updated(owner, types.CategoryExpense, description, previous, amount)
}

func (e *Emitter) IncomeUpdated(owner uint, description string, previous, amount decimal.Decimal) error {
	return e.updated(owner, types.CategoryIncome, description, previous, amount)
}

func (e *Emitter) added(owner uint, category types.Category, description string, amount decimal.Decimal) error {
	if owner == 0 {
		return fmt.Errorf("emit: missing owner")
	}

	message := fmt.Sprintf("You added an %s of $%s for %s", category, amount.String(), description)

	return e.publisher.Publish(owner, message, category)
}

func (e *Emitter) updated(owner uint, category types.Category, description string, previous, amount decimal.Decimal) error {
	if owner == 0 {
		return fmt.Errorf("emit: missing owner")
	}

	if previous.Equal(amount) {
		return nil
	}

	message := fmt.Sprintf("You updated an %s to $%s for %s", category, amount.String(), description)

	return e.publisher.Publish(owner, message, category)
}
