package testutil_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/smeta/internal/api"
	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/testutil"
)

func requireStatus(t *testing.T, err error, status int) *api.APIError {
	t.Helper()
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, status, apiErr.Status)
	return apiErr
}

func TestServer_RejectsMissingToken(t *testing.T) {
	b := testutil.NewBackend()
	srv := testutil.NewServer(t, b)

	anon := api.New(api.Config{BaseURL: srv.URL}, nil, nil)
	_, err := anon.ListPlans(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	forged := api.New(api.Config{BaseURL: srv.URL}, api.StaticToken("not-a-jwt"), nil)
	_, err = forged.ListPlans(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestServer_LoginIssuesUsableToken(t *testing.T) {
	b := testutil.NewBackend()
	srv := testutil.NewServer(t, b)
	ctx := context.Background()

	anon := api.New(api.Config{BaseURL: srv.URL}, nil, nil)
	_, err := anon.Login(ctx, testutil.TestUser, "wrong")
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	res, err := anon.Login(ctx, testutil.TestUser, testutil.TestPassword)
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.TokenType)

	client := api.New(api.Config{BaseURL: srv.URL}, api.StaticToken(res.AccessToken), nil)
	plans, err := client.ListPlans(ctx)
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestServer_PlanRoundTripAndMetrics(t *testing.T) {
	b := testutil.NewBackend()
	srv := testutil.NewServer(t, b)
	client := testutil.Client(t, b, srv)
	ctx := context.Background()

	p, err := client.CreatePlan(ctx, domain.PlanPayload{Name: "Смета 2025", Year: 2025})
	require.NoError(t, err)
	require.Len(t, p.Versions, 1)
	assert.Equal(t, domain.StatusDraft, p.Versions[0].Status)

	goods, err := client.AddItem(ctx, p.ID, testutil.GoodsPayload())
	require.NoError(t, err)
	service, err := client.AddItem(ctx, p.ID, testutil.ServicePayload())
	require.NoError(t, err)
	assert.Equal(t, domain.NeedGood, goods.NeedType)
	assert.Equal(t, domain.NeedService, service.NeedType)
	assert.Equal(t, 1, goods.Number)
	assert.Equal(t, 1, service.Number)

	p, err = client.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	v, ok := p.ActiveVersion()
	require.True(t, ok)
	assert.Equal(t, domain.Amount(1500), v.TotalAmount)
	assert.Equal(t, domain.Amount(1100), v.VCAmount)
	assert.InDelta(t, 73.333, v.VCPercentage.Float(), 0.001)
	assert.InDelta(t, 26.667, v.ImportPercentage.Float(), 0.001)
	assert.InDelta(t, 80, v.VCMedian.Float(), 1e-9)
	assert.Len(t, v.Items, 2)

	it, err := client.GetItem(ctx, goods.ID)
	require.NoError(t, err)
	require.NotNil(t, it.Version)
	assert.Equal(t, v.ID, it.Version.ID)
}

func TestServer_NumbersPerNeedTypeAndNeverReuses(t *testing.T) {
	b := testutil.NewBackend()
	ctx := context.Background()
	p, items := testutil.SeedPlan(t, b, "Нумерация",
		testutil.GoodsPayload(), testutil.ServicePayload(), testutil.GoodsPayload())
	assert.Equal(t, []int{1, 1, 2}, []int{items[0].Number, items[1].Number, items[2].Number})

	require.NoError(t, b.DeleteItem(ctx, items[2].ID))
	next, err := b.AddItem(ctx, p.ID, testutil.GoodsPayload())
	require.NoError(t, err)
	assert.Equal(t, 3, next.Number)
}

func TestServer_StatusTransitions(t *testing.T) {
	b := testutil.NewBackend()
	srv := testutil.NewServer(t, b)
	client := testutil.Client(t, b, srv)
	ctx := context.Background()
	p, _ := testutil.SeedPlan(t, b, "Статусы", testutil.GoodsPayload())
	vid := p.Versions[0].ID

	_, err := client.SetVersionStatus(ctx, p.ID, vid, domain.StatusApproved)
	requireStatus(t, err, http.StatusBadRequest)

	_, err = client.CreateVersion(ctx, p.ID)
	requireStatus(t, err, http.StatusBadRequest)

	v, err := client.SetVersionStatus(ctx, p.ID, vid, domain.StatusPreApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreApproved, v.Status)

	_, err = client.AddItem(ctx, p.ID, testutil.GoodsPayload())
	requireStatus(t, err, http.StatusForbidden)

	err = client.DeletePlan(ctx, p.ID)
	requireStatus(t, err, http.StatusForbidden)
}

func TestServer_ExecutionCeilings(t *testing.T) {
	b := testutil.NewBackend()
	srv := testutil.NewServer(t, b)
	client := testutil.Client(t, b, srv)
	ctx := context.Background()
	p, items := testutil.SeedPlan(t, b, "Исполнение", testutil.GoodsPayload())
	item := items[0]

	_, err := client.CreateExecution(ctx, testutil.ExecutionPayload(item.ID, 1, 100))
	requireStatus(t, err, http.StatusBadRequest)

	testutil.Approve(t, b, p.ID)

	_, err = client.CreateExecution(ctx, testutil.ExecutionPayload(item.ID, 1, 101))
	requireStatus(t, err, http.StatusBadRequest)
	_, err = client.CreateExecution(ctx, testutil.ExecutionPayload(item.ID, 11, 90))
	requireStatus(t, err, http.StatusBadRequest)

	e, err := client.CreateExecution(ctx, testutil.ExecutionPayload(item.ID, 4, 90))
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(360), e.ContractSum)

	_, err = client.CreateExecution(ctx, testutil.ExecutionPayload(item.ID, 6, 100))
	require.NoError(t, err)

	p, err = client.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	v, _ := p.ActiveVersion()
	assert.True(t, v.IsExecuted)

	execs, err := client.ListExecutions(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, execs, 2)

	require.NoError(t, client.DeleteExecution(ctx, e.ID))
	got, err := client.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(6), got.ExecutedQuantity)
	assert.False(t, got.Version.IsExecuted)
}

func TestServer_NewVersionClonesAndReverts(t *testing.T) {
	b := testutil.NewBackend()
	ctx := context.Background()
	p, items := testutil.SeedPlan(t, b, "Версии", testutil.GoodsPayload(testutil.WithQuantity(10)))
	v1 := testutil.Approve(t, b, p.ID)

	v2, err := b.CreateVersion(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Number)

	p, err = b.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	active, _ := p.ActiveVersion()
	require.Len(t, active.Items, 1)
	clone := active.Items[0]
	assert.Equal(t, items[0].ID, *clone.RootItemID)
	assert.Equal(t, v1.ID, *clone.SourceVersionID)
	assert.False(t, clone.CanRevert(v2.ID, true))

	edited, err := b.UpdateItem(ctx, clone.ID, testutil.GoodsPayload(testutil.WithQuantity(12)))
	require.NoError(t, err)
	assert.Equal(t, 1, edited.RevisionNumber)
	assert.Equal(t, "1-1 Т", edited.DisplayNumber())
	assert.True(t, edited.CanRevert(v2.ID, true))

	reverted, err := b.RevertItem(ctx, clone.ID)
	require.NoError(t, err)
	assert.Equal(t, clone.ID, reverted.ID)
	assert.Equal(t, domain.Amount(10), reverted.Quantity)
	assert.Equal(t, 0, reverted.RevisionNumber)

	require.NoError(t, b.DeleteLatestVersion(ctx, p.ID))
	p, err = b.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	active, _ = p.ActiveVersion()
	assert.Equal(t, v1.ID, active.ID)

	err = b.DeleteLatestVersion(ctx, p.ID)
	requireStatus(t, err, http.StatusBadRequest)
}

func TestServer_ImportOutcomes(t *testing.T) {
	good := []any{testutil.CodeSteel, "168", 5, 200, 2, 1, "750000000", "750000000", "", "Сталь", "Болат"}
	badCode := []any{"000000.000.000000", "168", 1, 1, 2, 1, "750000000", "750000000", "", "", ""}
	noAgsk := []any{testutil.CodePipeline, "796", 1, 1, 1, 1, "750000000", "750000000", "", "", ""}

	t.Run("success", func(t *testing.T) {
		b := testutil.NewBackend()
		client := testutil.Client(t, b, testutil.NewServer(t, b))
		p, _ := testutil.SeedPlan(t, b, "Импорт")
		data, err := testutil.ImportWorkbook(good, good)
		require.NoError(t, err)

		res, err := client.ImportItems(context.Background(), p.ID, "items.xlsx", bytes.NewReader(data), t.TempDir())
		require.NoError(t, err)
		assert.False(t, res.Failed())
		assert.Equal(t, "Успешно импортировано 2 позиций", res.Message)
	})

	t.Run("error list", func(t *testing.T) {
		b := testutil.NewBackend()
		client := testutil.Client(t, b, testutil.NewServer(t, b))
		p, _ := testutil.SeedPlan(t, b, "Импорт")
		data, err := testutil.ImportWorkbook(good, badCode, noAgsk)
		require.NoError(t, err)

		res, err := client.ImportItems(context.Background(), p.ID, "items.xlsx", bytes.NewReader(data), t.TempDir())
		require.NoError(t, err)
		assert.True(t, res.Failed())
		assert.Equal(t, []string{
			"Строка 3: Не найден ЕНС ТРУ 000000.000.000000",
			"Строка 4: Для статьи затрат 'СМР' обязательно укажите код АГСК",
		}, res.Errors)

		p, err = b.GetPlan(context.Background(), p.ID)
		require.NoError(t, err)
		v, _ := p.ActiveVersion()
		assert.Empty(t, v.Items, "a rejected file imports nothing")
	})

	t.Run("annotated workbook", func(t *testing.T) {
		b := testutil.NewBackend()
		b.AnnotateImportErrors = true
		client := testutil.Client(t, b, testutil.NewServer(t, b))
		p, _ := testutil.SeedPlan(t, b, "Импорт")
		data, err := testutil.ImportWorkbook(good, badCode)
		require.NoError(t, err)

		res, err := client.ImportItems(context.Background(), p.ID, "items.xlsx", bytes.NewReader(data), t.TempDir())
		require.NoError(t, err)
		assert.NotEmpty(t, res.ErrorFile)
		assert.Equal(t, 1, res.ErrorRows)
		assert.Equal(t, []string{"Не найден ЕНС ТРУ 000000.000.000000"}, res.Errors)
	})

	t.Run("not a draft", func(t *testing.T) {
		b := testutil.NewBackend()
		client := testutil.Client(t, b, testutil.NewServer(t, b))
		p, _ := testutil.SeedPlan(t, b, "Импорт")
		testutil.Approve(t, b, p.ID)
		data, err := testutil.ImportWorkbook(good)
		require.NoError(t, err)

		_, err = client.ImportItems(context.Background(), p.ID, "items.xlsx", bytes.NewReader(data), t.TempDir())
		requireStatus(t, err, http.StatusForbidden)
	})
}

func TestServer_ExportAndTemplate(t *testing.T) {
	b := testutil.NewBackend()
	client := testutil.Client(t, b, testutil.NewServer(t, b))
	ctx := context.Background()
	p, _ := testutil.SeedPlan(t, b, "Экспорт", testutil.GoodsPayload(), testutil.WorksPayload(), testutil.ServicePayload())
	dir := t.TempDir()

	sum, err := client.ExportVersion(ctx, p.ID, p.Versions[0].ID, 1, dir)
	require.NoError(t, err)
	assert.Equal(t, "Смета", sum.Sheet)
	assert.Equal(t, 3, sum.Rows)

	tpl, err := client.ImportTemplate(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, tpl.Rows)
}

func TestBackend_FailureInjection(t *testing.T) {
	b := testutil.NewBackend()
	boom := errors.New("boom")
	b.Fail("ListPlans", boom)

	_, err := b.ListPlans(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, b.Calls("ListPlans"))

	b.Fail("ListPlans", nil)
	_, err = b.ListPlans(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, b.Calls("ListPlans"))
}

func TestBackend_LookupsFilterAndLimit(t *testing.T) {
	b := testutil.NewBackend()
	ctx := context.Background()

	out, err := b.SearchEnstru(ctx, "стальные")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, testutil.CodeSteel, out[0].Code)

	ktp, err := b.CheckKtp(ctx, testutil.CodeSteel)
	require.NoError(t, err)
	assert.True(t, ktp.IsKtp)

	roots, err := b.SearchKato(ctx, nil, "")
	require.NoError(t, err)
	assert.Len(t, roots, 2)

	parent := testutil.KatoAlmaty
	children, err := b.SearchKato(ctx, &parent, "")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, testutil.KatoAlmaly, children[0].ID)
}
