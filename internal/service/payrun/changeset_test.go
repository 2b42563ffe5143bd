package payrun

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/payrun"
)

func TestSetItemField(t *testing.T) {
	t.Run("earning and deduction fields", func(t *testing.T) {
		var item payrun.PayrollItem

		require.NoError(t, setItemField(&item, "basic_salary", dec("3500")))
		require.NoError(t, setItemField(&item, "ot_hours", dec("12")))
		require.NoError(t, setItemField(&item, "advance_deduction", dec("200")))

		assert.True(t, item.BasicSalary.Equal(dec("3500")))
		assert.True(t, item.OTHours.Equal(dec("12")))
		assert.True(t, item.AdvanceDeduction.Equal(dec("200")))
	})

	t.Run("override fields set the pointer", func(t *testing.T) {
		var item payrun.PayrollItem

		require.NoError(t, setItemField(&item, "epf_override", dec("0")))
		require.NotNil(t, item.EPFOverride)
		assert.True(t, item.EPFOverride.IsZero())

		require.NoError(t, setItemField(&item, "pcb_override", dec("99.99")))
		require.NotNil(t, item.PCBOverride)

		require.NoError(t, setItemField(&item, "claims_override", dec("10")))
		require.NotNil(t, item.ClaimsOverride)
	})

	t.Run("unknown field", func(t *testing.T) {
		var item payrun.PayrollItem
		err := setItemField(&item, "no_such_field", dec("1"))
		assert.Error(t, err)
	})

	t.Run("negative input field", func(t *testing.T) {
		var item payrun.PayrollItem
		err := setItemField(&item, "bonus", dec("-5"))
		assert.Error(t, err)
	})

	t.Run("negative override", func(t *testing.T) {
		var item payrun.PayrollItem
		for _, field := range []string{"epf_override", "pcb_override", "claims_override"} {
			err := setItemField(&item, field, dec("-5"))
			assert.Error(t, err, field)
		}
		assert.Nil(t, item.EPFOverride)
		assert.Nil(t, item.PCBOverride)
		assert.Nil(t, item.ClaimsOverride)
	})
}

func TestMergeItemUpdate(t *testing.T) {
	existing := dec("50")
	item := payrun.PayrollItem{
		BasicSalary: dec("3000"),
		Commission:  dec("150"),
		EPFOverride: &existing,
	}

	newBasic := dec("3200")
	req := payrun.UpdateItemRequest{
		BasicSalary: &newBasic,
		PCBOverride: payrun.Override{Present: true, Value: dec("80")},
		EPFOverride: payrun.Override{Present: true, Clear: true},
	}

	mergeItemUpdate(&item, req)

	assert.True(t, item.BasicSalary.Equal(dec("3200")))
	// Untouched fields survive the merge.
	assert.True(t, item.Commission.Equal(dec("150")))
	// Cleared override drops back to computed.
	assert.Nil(t, item.EPFOverride)
	require.NotNil(t, item.PCBOverride)
	assert.True(t, item.PCBOverride.Equal(dec("80")))
}
