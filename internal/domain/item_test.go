package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestItem_DisplayNumber(t *testing.T) {
	assert.Equal(t, "3 Т", (&Item{Number: 3, NeedType: NeedGood}).DisplayNumber())
	assert.Equal(t, "3-2 Р", (&Item{Number: 3, RevisionNumber: 2, NeedType: NeedWork}).DisplayNumber())
	assert.Equal(t, "1 У", (&Item{Number: 1, NeedType: NeedService}).DisplayNumber())
}

func TestItem_CanRevert(t *testing.T) {
	changed := Item{ID: 20, RootItemID: ptr(int64(5)), SourceVersionID: ptr(int64(2))}
	assert.True(t, changed.CanRevert(2, true))
	assert.False(t, changed.CanRevert(2, false), "locked version")
	assert.False(t, changed.CanRevert(3, true), "changed in another version")

	original := Item{ID: 5, RootItemID: ptr(int64(5)), SourceVersionID: ptr(int64(2))}
	assert.False(t, original.CanRevert(2, true), "root item has nothing to revert to")

	deleted := changed
	deleted.IsDeleted = true
	assert.False(t, deleted.CanRevert(2, true))
}

func TestItem_Actions(t *testing.T) {
	it := Item{ID: 1}
	draft := &Version{ID: 1, IsActive: true, Status: StatusDraft}
	approved := &Version{ID: 1, IsActive: true, Status: StatusApproved}

	assert.Equal(t, ItemActions{Edit: true, Delete: true}, it.Actions(draft))
	assert.Equal(t, ItemActions{Execution: true}, it.Actions(approved))

	it.IsDeleted = true
	assert.Equal(t, ItemActions{}, it.Actions(approved))
}

func TestNeedType_RankAndParse(t *testing.T) {
	assert.Less(t, NeedGood.Rank(), NeedWork.Rank())
	assert.Less(t, NeedWork.Rank(), NeedService.Rank())

	n, err := ParseNeedType("work")
	require.NoError(t, err)
	assert.Equal(t, NeedWork, n)
	assert.Equal(t, NeedService, CatalogServices.NeedType())
	assert.Equal(t, NeedGood, Enstru{TypeName: CatalogGoods}.NeedType())
}

func TestAmount_DecodesNumbersAndStrings(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.5, "b": "1000.00", "c": null}`), &v))
	assert.Equal(t, Amount(12.5), v.A)
	assert.Equal(t, Amount(1000), v.B)
	assert.Equal(t, Amount(0), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a": "abc"}`), &v))
}

func TestTimestamp_NaiveAndZoned(t *testing.T) {
	var v struct {
		T Timestamp `json:"t"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"t": "2025-03-01T10:20:30.123456"}`), &v))
	assert.Equal(t, 2025, v.T.Year())

	require.NoError(t, json.Unmarshal([]byte(`{"t": "2025-03-01T10:20:30Z"}`), &v))
	assert.Equal(t, 10, v.T.Hour())
}

func TestItem_DecodesServerShape(t *testing.T) {
	raw := `{"id": 7, "version_id": 2, "item_number": 1, "revision_number": 0,
		"need_type": "Товар", "trucode": "123", "quantity": "10", "price_per_unit": 100,
		"total_amount": "1000.00", "is_ktp": true, "resident_share": 100,
		"is_deleted": false, "root_item_id": 7, "source_version_id": null,
		"enstru": {"id": 1, "code": "123", "name_rus": "Бумага", "name_kaz": "Қағаз", "type_name": "GOODS"}}`
	var it Item
	require.NoError(t, json.Unmarshal([]byte(raw), &it))
	assert.Equal(t, Amount(10), it.Quantity)
	assert.Equal(t, Amount(1000), it.TotalAmount)
	assert.Nil(t, it.SourceVersionID)
	assert.Equal(t, "Қағаз", it.Name(LangKk))
	assert.Equal(t, "Бумага", it.Name(LangRu))
}
