package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alexanderramin/smeta/internal/api"
	"github.com/alexanderramin/smeta/internal/domain"
)

// Default credentials accepted by a new Backend.
const (
	TestUser     = "user"
	TestPassword = "password"
	TestUserID   = int64(1)
)

// Backend is an in-memory stand-in for the plan server. It applies the
// server's business rules and reports failures as *api.APIError, so code
// under test sees the same values it would get over HTTP. Serve it with
// NewServer or call it directly.
type Backend struct {
	mu sync.Mutex

	Secret []byte
	// AnnotateImportErrors makes a rejected import answer with the uploaded
	// workbook plus an error column instead of an error list.
	AnnotateImportErrors bool

	nextID     int64
	now        func() time.Time
	users      map[string]string
	plans      map[int64]*domain.Plan
	versions   map[int64]*domain.Version
	items      map[int64]*domain.Item
	executions map[int64]*domain.Execution
	catalog    Catalog

	calls    map[string]int
	failures map[string]error
}

// NewBackend returns a backend seeded with DefaultCatalog and one user.
func NewBackend() *Backend {
	return &Backend{
		Secret:     []byte("test-secret"),
		nextID:     100,
		now:        func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) },
		users:      map[string]string{TestUser: TestPassword},
		plans:      map[int64]*domain.Plan{},
		versions:   map[int64]*domain.Version{},
		items:      map[int64]*domain.Item{},
		executions: map[int64]*domain.Execution{},
		catalog:    DefaultCatalog(),
		calls:      map[string]int{},
		failures:   map[string]error{},
	}
}

// Fail makes every later call of op return err until cleared with a nil err.
func (b *Backend) Fail(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, op)
		return
	}
	b.failures[op] = err
}

// Calls reports how many times op was invoked.
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// enter locks the backend and counts the call. The caller must unlock.
func (b *Backend) enter(op string) error {
	b.mu.Lock()
	b.calls[op]++
	return b.failures[op]
}

func apiError(status int, format string, args ...any) error {
	return &api.APIError{Status: status, Detail: fmt.Sprintf(format, args...)}
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

func ptr[T any](v T) *T { return &v }

// MintToken signs a token for user the way the server does.
func (b *Backend) MintToken(user string, ttl time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   user,
		IssuedAt:  jwt.NewNumericDate(b.now()),
		ExpiresAt: jwt.NewNumericDate(b.now().Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.Secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// VerifyToken checks a bearer token's signature.
func (b *Backend) VerifyToken(token string) error {
	_, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return b.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(b.now))
	if err != nil {
		return apiError(http.StatusUnauthorized, "Could not validate credentials")
	}
	return nil
}

func (b *Backend) Login(_ context.Context, username, password string) (domain.LoginResult, error) {
	if err := b.enter("Login"); err != nil {
		b.mu.Unlock()
		return domain.LoginResult{}, err
	}
	want, ok := b.users[username]
	b.mu.Unlock()
	if !ok || want != password {
		return domain.LoginResult{}, apiError(http.StatusUnauthorized, "Неверное имя пользователя или пароль")
	}
	return domain.LoginResult{AccessToken: b.MintToken(username, 24*time.Hour), TokenType: "bearer"}, nil
}

// --- plans and versions ---

func (b *Backend) ListPlans(context.Context) ([]domain.Plan, error) {
	if err := b.enter("ListPlans"); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	defer b.mu.Unlock()
	out := make([]domain.Plan, 0, len(b.plans))
	for _, p := range b.plans {
		out = append(out, b.planView(p, false))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (b *Backend) CreatePlan(_ context.Context, in domain.PlanPayload) (domain.Plan, error) {
	if err := b.enter("CreatePlan"); err != nil {
		b.mu.Unlock()
		return domain.Plan{}, err
	}
	defer b.mu.Unlock()
	if strings.TrimSpace(in.Name) == "" {
		return domain.Plan{}, apiError(http.StatusUnprocessableEntity, "Наименование сметы обязательно")
	}
	p := &domain.Plan{ID: b.id(), Name: in.Name, Year: in.Year, CreatedBy: TestUserID, CreatedAt: domain.Timestamp{Time: b.now()}}
	b.plans[p.ID] = p
	v := &domain.Version{
		ID:        b.id(),
		PlanID:    p.ID,
		Number:    1,
		Status:    domain.StatusDraft,
		IsActive:  true,
		CreatedAt: domain.Timestamp{Time: b.now()},
		Creator:   &domain.UserLookup{ID: TestUserID, FullName: "Тестовый Пользователь"},
	}
	b.versions[v.ID] = v
	return b.planView(p, true), nil
}

func (b *Backend) GetPlan(_ context.Context, id int64) (domain.Plan, error) {
	if err := b.enter("GetPlan"); err != nil {
		b.mu.Unlock()
		return domain.Plan{}, err
	}
	defer b.mu.Unlock()
	p, ok := b.plans[id]
	if !ok {
		return domain.Plan{}, apiError(http.StatusNotFound, "План не найден")
	}
	return b.planView(p, true), nil
}

func (b *Backend) DeletePlan(_ context.Context, id int64) error {
	if err := b.enter("DeletePlan"); err != nil {
		b.mu.Unlock()
		return err
	}
	defer b.mu.Unlock()
	if _, ok := b.plans[id]; !ok {
		return apiError(http.StatusNotFound, "План не найден.")
	}
	for _, v := range b.planVersions(id) {
		if v.Status == domain.StatusPreApproved || v.Status == domain.StatusApproved {
			return apiError(http.StatusForbidden, "Нельзя удалить план, который уже был одобрен.")
		}
	}
	for _, v := range b.planVersions(id) {
		b.dropVersion(v.ID)
	}
	delete(b.plans, id)
	return nil
}

func (b *Backend) CreateVersion(_ context.Context, planID int64) (domain.Version, error) {
	if err := b.enter("CreateVersion"); err != nil {
		b.mu.Unlock()
		return domain.Version{}, err
	}
	defer b.mu.Unlock()
	cur := b.activeVersion(planID)
	if cur == nil {
		return domain.Version{}, apiError(http.StatusNotFound, "Активная версия не найдена.")
	}
	if cur.Status == domain.StatusDraft {
		return domain.Version{}, apiError(http.StatusBadRequest, "Нельзя создать новую версию из черновика. Сначала одобрите текущую версию.")
	}
	cur.IsActive = false
	next := &domain.Version{
		ID:        b.id(),
		PlanID:    planID,
		Number:    cur.Number + 1,
		Status:    domain.StatusDraft,
		IsActive:  true,
		CreatedAt: domain.Timestamp{Time: b.now()},
		Creator:   cur.Creator,
	}
	b.versions[next.ID] = next

	for _, it := range b.versionItems(cur.ID) {
		if it.IsDeleted {
			continue
		}
		clone := *it
		clone.ID = b.id()
		clone.VersionID = next.ID
		if it.RootItemID == nil {
			clone.RootItemID = ptr(it.ID)
		}
		if it.SourceVersionID == nil {
			clone.SourceVersionID = ptr(cur.ID)
		}
		b.items[clone.ID] = &clone
		for _, e := range b.itemExecutions(it.ID) {
			ec := *e
			ec.ID = b.id()
			ec.ItemID = clone.ID
			b.executions[ec.ID] = &ec
		}
	}
	b.recalculate(next.ID)
	return *next, nil
}

func (b *Backend) SetVersionStatus(_ context.Context, planID, versionID int64, to domain.PlanStatus) (domain.Version, error) {
	if err := b.enter("SetVersionStatus"); err != nil {
		b.mu.Unlock()
		return domain.Version{}, err
	}
	defer b.mu.Unlock()
	v := b.activeVersion(planID)
	if v == nil || v.ID != versionID {
		return domain.Version{}, apiError(http.StatusNotFound, "Активная версия плана не найдена")
	}
	if !v.Status.CanTransitionTo(to) {
		return domain.Version{}, apiError(http.StatusBadRequest, "Недопустимый переход статуса из %s в %s", v.Status, to)
	}
	v.Status = to
	return *v, nil
}

func (b *Backend) DeleteLatestVersion(_ context.Context, planID int64) error {
	if err := b.enter("DeleteLatestVersion"); err != nil {
		b.mu.Unlock()
		return err
	}
	defer b.mu.Unlock()
	v := b.activeVersion(planID)
	switch {
	case v == nil:
		return apiError(http.StatusNotFound, "Активная версия не найдена.")
	case v.Status != domain.StatusDraft:
		return apiError(http.StatusBadRequest, "Удалять можно только версию в статусе 'Черновик'.")
	case v.Number == 1:
		return apiError(http.StatusBadRequest, "Нельзя удалить самую первую версию. Вместо этого удалите весь план.")
	}
	var prev *domain.Version
	for _, pv := range b.planVersions(planID) {
		if pv.Number == v.Number-1 {
			prev = pv
		}
	}
	if prev == nil {
		return apiError(http.StatusNotFound, "Предыдущая версия не найдена для восстановления.")
	}
	b.dropVersion(v.ID)
	prev.IsActive = true
	return nil
}

// --- items ---

func (b *Backend) AddItem(_ context.Context, planID int64, in domain.ItemPayload) (domain.Item, error) {
	if err := b.enter("AddItem"); err != nil {
		b.mu.Unlock()
		return domain.Item{}, err
	}
	defer b.mu.Unlock()
	v := b.activeVersion(planID)
	if v == nil {
		return domain.Item{}, apiError(http.StatusNotFound, "Активная версия плана не найдена")
	}
	if v.Status != domain.StatusDraft {
		return domain.Item{}, apiError(http.StatusForbidden, "Добавлять позиции можно только в черновик.")
	}
	it := &domain.Item{ID: b.id(), VersionID: v.ID, CreatedAt: domain.Timestamp{Time: b.now()}}
	if err := b.applyPayload(it, in); err != nil {
		return domain.Item{}, err
	}
	it.Number = b.nextNumber(v.ID, it.NeedType)
	it.RootItemID = ptr(it.ID)
	it.SourceVersionID = ptr(v.ID)
	b.items[it.ID] = it
	b.recalculate(v.ID)
	return b.itemView(it, false), nil
}

func (b *Backend) GetItem(_ context.Context, id int64) (domain.Item, error) {
	if err := b.enter("GetItem"); err != nil {
		b.mu.Unlock()
		return domain.Item{}, err
	}
	defer b.mu.Unlock()
	it, ok := b.items[id]
	if !ok || it.IsDeleted {
		return domain.Item{}, apiError(http.StatusNotFound, "Позиция не найдена")
	}
	return b.itemView(it, true), nil
}

func (b *Backend) UpdateItem(_ context.Context, id int64, in domain.ItemPayload) (domain.Item, error) {
	if err := b.enter("UpdateItem"); err != nil {
		b.mu.Unlock()
		return domain.Item{}, err
	}
	defer b.mu.Unlock()
	it, ok := b.items[id]
	if !ok || it.IsDeleted {
		return domain.Item{}, apiError(http.StatusNotFound, "Позиция не найдена")
	}
	v := b.versions[it.VersionID]
	if v.Status != domain.StatusDraft {
		return domain.Item{}, apiError(http.StatusForbidden, "Редактирование запрещено, версия не в статусе 'Черновик'.")
	}
	updated := *it
	if err := b.applyPayload(&updated, in); err != nil {
		return domain.Item{}, err
	}
	if updated.SourceVersionID == nil || *updated.SourceVersionID != v.ID {
		updated.RevisionNumber++
		updated.SourceVersionID = ptr(v.ID)
	}
	*it = updated
	b.recalculate(v.ID)
	return b.itemView(it, false), nil
}

func (b *Backend) DeleteItem(_ context.Context, id int64) error {
	if err := b.enter("DeleteItem"); err != nil {
		b.mu.Unlock()
		return err
	}
	defer b.mu.Unlock()
	it, ok := b.items[id]
	if !ok || it.IsDeleted {
		return apiError(http.StatusNotFound, "Позиция не найдена")
	}
	if b.versions[it.VersionID].Status != domain.StatusDraft {
		return apiError(http.StatusForbidden, "Удаление запрещено, версия не в статусе 'Черновик'.")
	}
	it.IsDeleted = true
	b.recalculate(it.VersionID)
	return nil
}

func (b *Backend) RevertItem(_ context.Context, id int64) (domain.Item, error) {
	if err := b.enter("RevertItem"); err != nil {
		b.mu.Unlock()
		return domain.Item{}, err
	}
	defer b.mu.Unlock()
	it, ok := b.items[id]
	if !ok || it.IsDeleted {
		return domain.Item{}, apiError(http.StatusNotFound, "Позиция не найдена")
	}
	v := b.versions[it.VersionID]
	if v.Status != domain.StatusDraft {
		return domain.Item{}, apiError(http.StatusForbidden, "Откат возможен только для черновика.")
	}
	if it.SourceVersionID == nil || *it.SourceVersionID != v.ID {
		return domain.Item{}, apiError(http.StatusBadRequest, "Эта позиция не была изменена в текущей версии.")
	}

	var prev *domain.Item
	prevNumber := 0
	for _, cand := range b.items {
		pv := b.versions[cand.VersionID]
		if cand.IsDeleted || pv.PlanID != v.PlanID || pv.Number >= v.Number {
			continue
		}
		if cand.RootItemID == nil || it.RootItemID == nil || *cand.RootItemID != *it.RootItemID {
			continue
		}
		if pv.Number > prevNumber {
			prev, prevNumber = cand, pv.Number
		}
	}
	if prev == nil {
		return domain.Item{}, apiError(http.StatusNotFound, "Предыдущая версия этой позиции не найдена.")
	}

	restored := *prev
	restored.ID = it.ID
	restored.VersionID = it.VersionID
	restored.Number = it.Number
	restored.CreatedAt = it.CreatedAt
	restored.RootItemID = it.RootItemID
	restored.ExecutedQuantity = it.ExecutedQuantity
	restored.ExecutedAmount = it.ExecutedAmount
	*it = restored
	b.recalculate(v.ID)
	return b.itemView(it, false), nil
}

func (b *Backend) applyPayload(it *domain.Item, in domain.ItemPayload) error {
	e, ok := b.catalog.enstru(in.TruCode)
	if !ok {
		return apiError(http.StatusBadRequest, "Код ЕНС ТРУ '%s' не найден.", in.TruCode)
	}
	cost, ok := b.catalog.costItem(in.CostItemID)
	if !ok {
		return apiError(http.StatusBadRequest, "Статья затрат не найдена")
	}
	fund, ok := b.catalog.fundingSource(in.FundingSourceID)
	if !ok {
		return apiError(http.StatusBadRequest, "Источник финансирования не найден")
	}
	kp, ok := b.catalog.kato(in.KatoPurchaseID)
	if !ok {
		return apiError(http.StatusBadRequest, "КАТО закупки не найден")
	}
	kd, ok := b.catalog.kato(in.KatoDeliveryID)
	if !ok {
		return apiError(http.StatusBadRequest, "КАТО поставки не найден")
	}
	it.Unit = nil
	if in.UnitID != nil {
		u, ok := b.catalog.mkei(*in.UnitID)
		if !ok {
			return apiError(http.StatusBadRequest, "Единица измерения не найдена")
		}
		it.Unit = &u
	}
	it.Agsk = nil
	if in.AgskCode != nil {
		a, ok := b.catalog.agsk(*in.AgskCode)
		if !ok {
			return apiError(http.StatusBadRequest, "Код АГСК не найден")
		}
		it.Agsk = &a
	}

	it.TruCode = e.Code
	it.Enstru = &e
	it.NeedType = e.NeedType()
	it.CostItem = &cost
	it.FundingSource = &fund
	it.KatoPurchase = &kp
	it.KatoDelivery = &kd
	it.SpecsRu = in.SpecsRu
	it.SpecsKk = in.SpecsKk
	it.Quantity = domain.Amount(in.Quantity)
	it.PricePerUnit = domain.Amount(in.PricePerUnit)
	it.TotalAmount = domain.Amount(in.Quantity * in.PricePerUnit)
	it.IsKtp = in.IsKtp
	it.ResidentShare = domain.Amount(in.ResidentShare)
	it.NonResidentReason = ""
	if in.NonResidentReason != nil {
		it.NonResidentReason = *in.NonResidentReason
	}
	it.MinDVCPercent = domain.Amount(in.MinDVCPercent)
	return nil
}

// nextNumber numbers items per need type within a version, counting
// deleted items so numbers are never reused.
func (b *Backend) nextNumber(versionID int64, need domain.NeedType) int {
	n := 0
	for _, it := range b.versionItems(versionID) {
		if it.NeedType == need && it.Number > n {
			n = it.Number
		}
	}
	return n + 1
}

// --- executions ---

func (b *Backend) CreateExecution(_ context.Context, in domain.ExecutionPayload) (domain.Execution, error) {
	if err := b.enter("CreateExecution"); err != nil {
		b.mu.Unlock()
		return domain.Execution{}, err
	}
	defer b.mu.Unlock()
	it, ok := b.items[in.ItemID]
	if !ok {
		return domain.Execution{}, apiError(http.StatusNotFound, "Позиция плана не найдена")
	}
	if b.versions[it.VersionID].Status != domain.StatusApproved {
		return domain.Execution{}, apiError(http.StatusBadRequest, "Отчеты можно добавлять только к утвержденным планам")
	}
	if in.ContractPricePerUnit > it.PricePerUnit.Float() {
		return domain.Execution{}, apiError(http.StatusBadRequest, "Цена за единицу (%v) превышает плановую (%v)", in.ContractPricePerUnit, it.PricePerUnit.Float())
	}
	var doneQty, doneSum float64
	for _, e := range b.itemExecutions(it.ID) {
		doneQty += e.ContractQuantity.Float()
		doneSum += e.ContractSum.Float()
	}
	if doneQty+in.ContractQuantity > it.Quantity.Float() {
		return domain.Execution{}, apiError(http.StatusBadRequest, "Превышено плановое количество. Осталось: %v, вы пытаетесь добавить: %v",
			it.Quantity.Float()-doneQty, in.ContractQuantity)
	}
	sum := in.ContractQuantity * in.ContractPricePerUnit
	if doneSum+sum-it.TotalAmount.Float() > 0.01 {
		return domain.Execution{}, apiError(http.StatusBadRequest, "Превышена плановая сумма. Осталось: %v, вы пытаетесь добавить: %v",
			it.TotalAmount.Float()-doneSum, sum)
	}

	e := &domain.Execution{
		ID:                   b.id(),
		ItemID:               it.ID,
		SupplierName:         in.SupplierName,
		SupplierBIN:          in.SupplierBIN,
		ResidencyCode:        in.ResidencyCode,
		OriginCode:           in.OriginCode,
		ContractNumber:       in.ContractNumber,
		ContractDate:         in.ContractDate,
		ContractQuantity:     domain.Amount(in.ContractQuantity),
		ContractPricePerUnit: domain.Amount(in.ContractPricePerUnit),
		ContractSum:          domain.Amount(sum),
		SupplyVolumePhysical: domain.Amount(in.SupplyVolumePhysical),
		SupplyVolumeValue:    domain.Amount(in.SupplyVolumeValue),
	}
	b.executions[e.ID] = e
	b.recalculateExecution(it)
	return *e, nil
}

func (b *Backend) ListExecutions(_ context.Context, itemID int64) ([]domain.Execution, error) {
	if err := b.enter("ListExecutions"); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	defer b.mu.Unlock()
	if _, ok := b.items[itemID]; !ok {
		return nil, apiError(http.StatusNotFound, "Позиция плана не найдена")
	}
	execs := b.itemExecutions(itemID)
	out := make([]domain.Execution, len(execs))
	for i, e := range execs {
		out[i] = *e
	}
	return out, nil
}

func (b *Backend) DeleteExecution(_ context.Context, id int64) error {
	if err := b.enter("DeleteExecution"); err != nil {
		b.mu.Unlock()
		return err
	}
	defer b.mu.Unlock()
	e, ok := b.executions[id]
	if !ok {
		return apiError(http.StatusNotFound, "Запись об исполнении не найдена")
	}
	delete(b.executions, id)
	b.recalculateExecution(b.items[e.ItemID])
	return nil
}

// recalculateExecution refreshes the item's executed totals and the
// version's is_executed flag.
func (b *Backend) recalculateExecution(it *domain.Item) {
	var qty, sum float64
	for _, e := range b.itemExecutions(it.ID) {
		qty += e.ContractQuantity.Float()
		sum += e.ContractSum.Float()
	}
	it.ExecutedQuantity = domain.Amount(qty)
	it.ExecutedAmount = domain.Amount(sum)

	v := b.versions[it.VersionID]
	live := 0
	executed := true
	for _, other := range b.versionItems(v.ID) {
		if other.IsDeleted {
			continue
		}
		live++
		if other.ExecutedQuantity < other.Quantity {
			executed = false
		}
	}
	v.IsExecuted = live > 0 && executed
}

// recalculate refreshes a version's totals and local-content metrics.
func (b *Backend) recalculate(versionID int64) {
	v := b.versions[versionID]
	var total, vc, ktp float64
	var shares []float64
	for _, it := range b.versionItems(versionID) {
		if it.IsDeleted {
			continue
		}
		share := it.ResidentShare.Float()
		if it.NeedType == domain.NeedGood {
			share = b.catalog.Ktp[it.TruCode]
		}
		it.MinDVCPercent = domain.Amount(share)
		it.VCAmount = domain.Amount(it.TotalAmount.Float() * share / 100)
		total += it.TotalAmount.Float()
		vc += it.VCAmount.Float()
		if it.IsKtp {
			ktp += it.TotalAmount.Float()
		}
		shares = append(shares, share)
	}
	v.TotalAmount = domain.Amount(total)
	v.VCAmount = domain.Amount(vc)
	v.ImportPercentage, v.VCPercentage, v.KtpPercentage = 0, 0, 0
	if total > 0 {
		v.ImportPercentage = domain.Amount((total - vc) / total * 100)
		v.VCPercentage = domain.Amount(vc / total * 100)
		v.KtpPercentage = domain.Amount(ktp / total * 100)
	}
	v.VCMean, v.VCMedian = domain.Amount(mean(shares)), domain.Amount(median(shares))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// --- lookups ---

func (b *Backend) SearchEnstru(_ context.Context, q string) ([]domain.Enstru, error) {
	if err := b.enter("SearchEnstru"); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	defer b.mu.Unlock()
	return filter(b.catalog.Enstru, q, func(e domain.Enstru) []string { return []string{e.Code, e.NameRu, e.NameKk} }), nil
}

func (b *Backend) CheckKtp(_ context.Context, code string) (domain.KtpStatus, error) {
	if err := b.enter("CheckKtp"); err != nil {
		b.mu.Unlock()
		return domain.KtpStatus{}, err
	}
	defer b.mu.Unlock()
	_, ok := b.catalog.Ktp[code]
	return domain.KtpStatus{IsKtp: ok}, nil
}

func (b *Backend) SearchMkei(_ context.Context, q string) ([]domain.Mkei, error) {
	if err := b.enter("SearchMkei"); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	defer b.mu.Unlock()
	return filter(b.catalog.Mkei, q, func(m domain.Mkei) []string { return []string{m.Code, m.NameRu, m.NameKk} }), nil
}

func (b *Backend) CostItems(context.Context) ([]domain.CostItem, error) {
	if err := b.enter("CostItems"); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	defer b.mu.Unlock()
	return append([]domain.CostItem(nil), b.catalog.CostItems...), nil
}

func (b *Backend) FundingSources(context.Context) ([]domain.FundingSource, error) {
	if err := b.enter("FundingSources"); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	defer b.mu.Unlock()
	return append([]domain.FundingSource(nil), b.catalog.FundingSources...), nil
}

func (b *Backend) SearchAgsk(_ context.Context, q string) ([]domain.Agsk, error) {
	if err := b.enter("SearchAgsk"); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	defer b.mu.Unlock()
	return filter(b.catalog.Agsk, q, func(a domain.Agsk) []string { return []string{a.Code, a.NameRu, a.Group} }), nil
}

func (b *Backend) SearchKato(_ context.Context, parentID *int64, q string) ([]domain.Kato, error) {
	if err := b.enter("SearchKato"); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	defer b.mu.Unlock()
	var level []domain.Kato
	for _, k := range b.catalog.Kato {
		switch {
		case q != "":
			level = append(level, k)
		case parentID == nil && k.ParentID == nil:
			level = append(level, k)
		case parentID != nil && k.ParentID != nil && *k.ParentID == *parentID:
			level = append(level, k)
		}
	}
	return filter(level, q, func(k domain.Kato) []string { return []string{k.Code, k.NameRu, k.NameKk} }), nil
}

const maxLookupResults = 20

func filter[T any](all []T, q string, fields func(T) []string) []T {
	q = strings.ToLower(strings.TrimSpace(q))
	out := []T{}
	for _, v := range all {
		if len(out) == maxLookupResults {
			break
		}
		if q == "" {
			out = append(out, v)
			continue
		}
		for _, f := range fields(v) {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

// --- views over the tables; callers hold mu ---

func (b *Backend) planVersions(planID int64) []*domain.Version {
	var out []*domain.Version
	for _, v := range b.versions {
		if v.PlanID == planID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (b *Backend) activeVersion(planID int64) *domain.Version {
	for _, v := range b.planVersions(planID) {
		if v.IsActive {
			return v
		}
	}
	return nil
}

func (b *Backend) versionItems(versionID int64) []*domain.Item {
	var out []*domain.Item
	for _, it := range b.items {
		if it.VersionID == versionID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) itemExecutions(itemID int64) []*domain.Execution {
	var out []*domain.Execution
	for _, e := range b.executions {
		if e.ItemID == itemID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) dropVersion(versionID int64) {
	for _, it := range b.versionItems(versionID) {
		for _, e := range b.itemExecutions(it.ID) {
			delete(b.executions, e.ID)
		}
		delete(b.items, it.ID)
	}
	delete(b.versions, versionID)
}

func (b *Backend) planView(p *domain.Plan, withItems bool) domain.Plan {
	out := *p
	out.Versions = nil
	for _, v := range b.planVersions(p.ID) {
		vc := *v
		vc.Items = nil
		if withItems {
			for _, it := range b.versionItems(v.ID) {
				vc.Items = append(vc.Items, b.itemView(it, false))
			}
		}
		out.Versions = append(out.Versions, vc)
	}
	return out
}

func (b *Backend) itemView(it *domain.Item, withVersion bool) domain.Item {
	out := *it
	out.Version = nil
	if withVersion {
		v := *b.versions[it.VersionID]
		v.Items = nil
		out.Version = &v
	}
	return out
}
