package salereturn

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minipos/internal/core/appcontext"
	"minipos/internal/core/apperror"
	"minipos/internal/core/id"
	"minipos/internal/core/types"
	"minipos/internal/domain/catalogs/customer"
	"minipos/internal/domain/catalogs/product"
	"minipos/internal/domain/registers/lotstock"
	"minipos/internal/domain/sales/bill"
	"minipos/pkg/numerator"
)

// --- in-memory fakes ---

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeBillRepo struct {
	bills map[id.ID]*bill.Bill
	lines map[id.ID][]bill.Line
}

func newFakeBillRepo() *fakeBillRepo {
	return &fakeBillRepo{
		bills: make(map[id.ID]*bill.Bill),
		lines: make(map[id.ID][]bill.Line),
	}
}

func (f *fakeBillRepo) GetByID(ctx context.Context, billID id.ID) (*bill.Bill, error) {
	b, ok := f.bills[billID]
	if !ok {
		return nil, apperror.NewNotFound("bill", billID)
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBillRepo) GetForUpdate(ctx context.Context, billID id.ID) (*bill.Bill, error) {
	return f.GetByID(ctx, billID)
}

func (f *fakeBillRepo) FindByNumberOrPhone(ctx context.Context, query string, limit int) ([]bill.Bill, error) {
	var out []bill.Bill
	for _, b := range f.bills {
		if b.Number == query {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBillRepo) GetLines(ctx context.Context, billID id.ID) ([]bill.Line, error) {
	return f.lines[billID], nil
}

type fakeReturnRepo struct {
	headers map[id.ID]*ReturnBill
	lines   map[id.ID][]ReturnLine
}

func newFakeReturnRepo() *fakeReturnRepo {
	return &fakeReturnRepo{
		headers: make(map[id.ID]*ReturnBill),
		lines:   make(map[id.ID][]ReturnLine),
	}
}

func (f *fakeReturnRepo) Create(ctx context.Context, rb *ReturnBill) error {
	cp := *rb
	f.headers[rb.ID] = &cp
	return nil
}

func (f *fakeReturnRepo) CreateLines(ctx context.Context, lines []ReturnLine) error {
	for _, l := range lines {
		f.lines[l.ReturnBillID] = append(f.lines[l.ReturnBillID], l)
	}
	return nil
}

func (f *fakeReturnRepo) UpdateTotal(ctx context.Context, returnBillID id.ID, total types.Money) error {
	rb, ok := f.headers[returnBillID]
	if !ok {
		return apperror.NewNotFound("return bill", returnBillID)
	}
	rb.TotalAmountReturned = total
	return nil
}

func (f *fakeReturnRepo) CountByBill(ctx context.Context, billID id.ID) (int, error) {
	count := 0
	for _, rb := range f.headers {
		if rb.BillID == billID {
			count++
		}
	}
	return count, nil
}

func (f *fakeReturnRepo) ListByBill(ctx context.Context, billID id.ID) ([]ReturnBill, error) {
	var out []ReturnBill
	for _, rb := range f.headers {
		if rb.BillID == billID {
			out = append(out, *rb)
		}
	}
	return out, nil
}

func (f *fakeReturnRepo) GetByID(ctx context.Context, returnBillID id.ID) (*ReturnBill, error) {
	rb, ok := f.headers[returnBillID]
	if !ok {
		return nil, apperror.NewNotFound("return bill", returnBillID)
	}
	cp := *rb
	return &cp, nil
}

func (f *fakeReturnRepo) GetLines(ctx context.Context, returnBillID id.ID) ([]ReturnLine, error) {
	return f.lines[returnBillID], nil
}

func (f *fakeReturnRepo) List(ctx context.Context, filter ListFilter) ([]ReturnBill, int, error) {
	var out []ReturnBill
	for _, rb := range f.headers {
		out = append(out, *rb)
	}
	return out, len(out), nil
}

type fakeProductRepo struct {
	products map[id.ID]*product.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[id.ID]*product.Product)}
}

func (f *fakeProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) Exists(ctx context.Context, productID id.ID) (bool, error) {
	_, ok := f.products[productID]
	return ok, nil
}

func (f *fakeProductRepo) IncrementStock(ctx context.Context, productID id.ID, delta int) error {
	p, ok := f.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID)
	}
	p.StockQuantity += delta
	return nil
}

func (f *fakeProductRepo) List(ctx context.Context, limit, offset int) ([]product.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) Create(ctx context.Context, p *product.Product) error {
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

type fakeLotRepo struct {
	lots map[id.ID]*lotstock.LotStock
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{lots: make(map[id.ID]*lotstock.LotStock)}
}

func (f *fakeLotRepo) Get(ctx context.Context, lotID id.ID) (*lotstock.LotStock, error) {
	l, ok := f.lots[lotID]
	if !ok {
		return nil, apperror.NewNotFound("lot", lotID)
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLotRepo) Restock(ctx context.Context, lotID id.ID, quantity int) (int64, error) {
	l, ok := f.lots[lotID]
	if !ok {
		return 0, nil
	}
	l.CurrentQuantity += quantity
	l.InventoryStatus = lotstock.StatusActive
	return 1, nil
}

func (f *fakeLotRepo) Create(ctx context.Context, l *lotstock.LotStock) error {
	cp := *l
	f.lots[l.ID] = &cp
	return nil
}

type fakeCustomerRepo struct {
	customers map[id.ID]*customer.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[id.ID]*customer.Customer)}
}

func (f *fakeCustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	c, ok := f.customers[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer", customerID)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustomerRepo) GetByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	for _, c := range f.customers {
		if c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("customer", phone)
}

func (f *fakeCustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	cp := *c
	f.customers[c.ID] = &cp
	return nil
}

type auditEntry struct {
	Entity   string
	EntityID string
	Action   string
	Data     any
}

type fakeAudit struct {
	entries []auditEntry
}

func (f *fakeAudit) LogChange(ctx context.Context, entity, entityID, action string, data any) error {
	f.entries = append(f.entries, auditEntry{entity, entityID, action, data})
	return nil
}

// --- test environment ---

type testEnv struct {
	svc       *Service
	bills     *fakeBillRepo
	returns   *fakeReturnRepo
	products  *fakeProductRepo
	lots      *fakeLotRepo
	customers *fakeCustomerRepo
	audit     *fakeAudit
	now       time.Time
	cashierID id.ID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		bills:     newFakeBillRepo(),
		returns:   newFakeReturnRepo(),
		products:  newFakeProductRepo(),
		lots:      newFakeLotRepo(),
		customers: newFakeCustomerRepo(),
		audit:     &fakeAudit{},
		now:       time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		cashierID: id.New(),
	}

	seq := 0
	numbers := &numerator.MockGenerator{
		GetNextNumberFunc: func(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
			seq++
			return fmt.Sprintf("RT-2026-%05d", seq), nil
		},
	}

	env.svc = NewService(
		env.bills, env.returns, env.products, env.lots, env.customers,
		&fakeTxManager{}, numbers, env.audit,
		WithClock(func() time.Time { return env.now }),
	)
	return env
}

func (e *testEnv) ctx() context.Context {
	return appcontext.WithUser(context.Background(), &appcontext.UserContext{
		UserID:   e.cashierID.String(),
		Username: "cashier1",
		Name:     "Test Cashier",
		Role:     "cashier",
	})
}

// addProduct registers a catalog product with initial stock.
func (e *testEnv) addProduct(name string, stock int, price string) *product.Product {
	p := &product.Product{
		ID:            id.New(),
		SKU:           "SKU-" + name,
		Name:          name,
		UnitPrice:     types.MustMoney(price),
		StockQuantity: stock,
	}
	e.products.products[p.ID] = p
	return p
}

// addLot registers a lot for a product.
func (e *testEnv) addLot(productID id.ID, qty int, status string) *lotstock.LotStock {
	l := &lotstock.LotStock{
		ID:              id.New(),
		ProductID:       productID,
		LotNumber:       "LOT-" + id.New().String()[:8],
		CurrentQuantity: qty,
		InventoryStatus: status,
	}
	e.lots.lots[l.ID] = l
	return l
}

// addBill registers a bill created at the given age before test "now".
func (e *testEnv) addBill(age time.Duration, lines ...bill.Line) *bill.Bill {
	b := &bill.Bill{
		ID:        id.New(),
		Number:    fmt.Sprintf("B-%05d", len(e.bills.bills)+1),
		CreatedAt: e.now.Add(-age),
	}
	for i := range lines {
		lines[i].BillID = b.ID
		lines[i].LineNo = i + 1
		if id.IsNil(lines[i].ID) {
			lines[i].ID = id.New()
		}
	}
	e.bills.bills[b.ID] = b
	e.bills.lines[b.ID] = lines
	return b
}

func soldLine(p *product.Product, lot *lotstock.LotStock, qty int) bill.Line {
	var lotID *id.ID
	if lot != nil {
		v := lot.ID
		lotID = &v
	}
	return bill.Line{
		ProductID:   p.ID,
		LotID:       lotID,
		ProductName: p.Name,
		Quantity:    qty,
		UnitPrice:   p.UnitPrice,
	}
}

// --- Process tests ---

func TestProcess_SplitAcrossTwoLots(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct("Aspirin", 100, "10")
	lot1 := env.addLot(p.ID, 0, lotstock.StatusInactive)
	lot2 := env.addLot(p.ID, 20, lotstock.StatusActive)
	b := env.addBill(time.Hour, soldLine(p, lot1, 3), soldLine(p, lot2, 5))

	rb, err := env.svc.Process(env.ctx(), &ProcessRequest{
		BillID: b.ID,
		Items:  []ReturnItem{{ProductID: p.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	require.NotNil(t, rb)

	assert.Equal(t, "RT-2026-00001", rb.Number)
	assert.Equal(t, env.cashierID, rb.CashierID)
	assert.True(t, rb.TotalAmountReturned.Equal(types.MustMoney("40")), "total = %s", rb.TotalAmountReturned)

	require.Len(t, rb.Lines, 2)
	assert.Equal(t, 3, rb.Lines[0].Quantity)
	assert.True(t, rb.Lines[0].Subtotal.Equal(types.MustMoney("30")))
	assert.Equal(t, 1, rb.Lines[1].Quantity)
	assert.True(t, rb.Lines[1].Subtotal.Equal(types.MustMoney("10")))

	assert.Equal(t, 104, env.products.products[p.ID].StockQuantity)
	assert.Equal(t, 3, env.lots.lots[lot1.ID].CurrentQuantity)
	assert.Equal(t, 21, env.lots.lots[lot2.ID].CurrentQuantity)
	assert.Equal(t, lotstock.StatusActive, env.lots.lots[lot1.ID].InventoryStatus)

	persisted := env.returns.headers[rb.ID]
	require.NotNil(t, persisted)
	assert.True(t, persisted.TotalAmountReturned.Equal(types.MustMoney("40")))
}

func TestProcess_DoesNotMutateBill(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct("Aspirin", 100, "10")
	lot := env.addLot(p.ID, 5, lotstock.StatusActive)
	b := env.addBill(time.Hour, soldLine(p, lot, 2))
	before := *env.bills.bills[b.ID]

	_, err := env.svc.Process(env.ctx(), &ProcessRequest{
		BillID: b.ID,
		Items:  []ReturnItem{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, before, *env.bills.bills[b.ID])
}

func TestProcess_FullReturnTotalsMatch(t *testing.T) {
	env := newTestEnv(t)
	p1 := env.addProduct("Tea", 10, "2.50")
	p2 := env.addProduct("Coffee", 10, "7.25")
	lot1 := env.addLot(p1.ID, 0, lotstock.StatusActive)
	lot2 := env.addLot(p2.ID, 0, lotstock.StatusActive)
	b := env.addBill(time.Hour, soldLine(p1, lot1, 4), soldLine(p2, lot2, 2))

	rb, err := env.svc.Process(env.ctx(), &ProcessRequest{
		BillID: b.ID,
		Items: []ReturnItem{
			{ProductID: p1.ID, Quantity: 4},
			{ProductID: p2.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	// 4 * 2.50 + 2 * 7.25 = 24.50
	assert.True(t, rb.TotalAmountReturned.Equal(types.MustMoney("24.50")), "total = %s", rb.TotalAmountReturned)
	require.Len(t, rb.Lines, 2)
}

func TestProcess_OverReturnLeavesCountersUntouched(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct("Aspirin", 100, "10")
	lot := env.addLot(p.ID, 7, lotstock.StatusActive)
	b := env.addBill(time.Hour, soldLine(p, lot, 3))

	_, err := env.svc.Process(env.ctx(), &ProcessRequest{
		BillID: b.ID,
		Items:  []ReturnItem{{ProductID: p.ID, Quantity: 4}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsOverReturn(err))

	assert.Equal(t, 100, env.products.products[p.ID].StockQuantity)
	assert.Equal(t, 7, env.lots.lots[lot.ID].CurrentQuantity)
}

func TestProcess_SecondReturnNotEligible(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct("Aspirin", 100, "10")
	lot := env.addLot(p.ID, 5, lotstock.StatusActive)
	b := env.addBill(time.Hour, soldLine(p, lot, 3))
	req := &ProcessRequest{
		BillID: b.ID,
		Items:  []ReturnItem{{ProductID: p.ID, Quantity: 1}},
	}

	_, err := env.svc.Process(env.ctx(), req)
	require.NoError(t, err)

	_, err = env.svc.Process(env.ctx(), req)
	require.Error(t, err)
	assert.True(t, apperror.IsNotEligible(err))
	assert.Equal(t, 101, env.products.products[p.ID].StockQuantity)
}

func TestProcess_ExpiredBillNotEligible(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct("Aspirin", 100, "10")
	b := env.addBill(25*time.Hour, soldLine(p, nil, 3))

	_, err := env.svc.Process(env.ctx(), &ProcessRequest{
		BillID: b.ID,
		Items:  []ReturnItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotEligible(err))
}

func TestProcess_ExactlyAtWindowBoundaryEligible(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct("Aspirin", 100, "10")
	b := env.addBill(ReturnWindow, soldLine(p, nil, 3))

	_, err := env.svc.Process(env.ctx(), &ProcessRequest{
		BillID: b.ID,
		Items:  []ReturnItem{{ProductID: p.ID, Quantity: 1}},
	})
	assert.NoError(t, err)
}

func TestProcess_ProductNotOnBillSkipped(t *testing.T) {
	env := newTestEnv(t)
	onBill := env.addProduct("Tea", 10, "5")
	offBill := env.addProduct("Coffee", 10, "9")
	lot := env.addLot(onBill.ID, 0, lotstock.StatusActive)
	b := env.addBill(time.Hour, soldLine(onBill, lot, 2))

	rb, err := env.svc.Process(env.ctx(), &ProcessRequest{
		BillID: b.ID,
		Items: []ReturnItem{
			{ProductID: offBill.ID, Quantity: 1},
			{ProductID: onBill.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	require.Len(t, rb.Lines, 1)
	assert.Equal(t, onBill.ID, rb.Lines[0].ProductID)
	assert.True(t, rb.TotalAmountReturned.Equal(types.MustMoney("10")))

	assert.Equal(t, 10, env.products.products[offBill.ID].StockQuantity)

	require.Len(t, env.audit.entries, 1)
	assert.Equal(t, "anomaly:product_not_on_bill", env.audit.entries[0].Action)
}

func TestProcess_UnknownProductNotFound(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct("Tea", 10, "5")
	b := env.addBill(time.Hour, soldLine(p, nil, 2))

	_, err := env.svc.Process(env.ctx(), &ProcessRequest{
		BillID: b.ID,
		Items:  []ReturnItem{{ProductID: id.New(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestProcess_UnknownBillNotFound(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct("Tea", 10, "5")

	_, err := env.svc.Process(env.ctx(), &ProcessRequest{
		BillID: id.New(),
		Items:  []ReturnItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestProcess_MissingLotIsNonFatal(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct("Tea", 10, "5")
	goneLot := id.New()
	line := soldLine(p, nil, 2)
	line.LotID = &goneLot
	b := env.addBill(time.Hour, line)

	rb, err := env.svc.Process(env.ctx(), &ProcessRequest{
		BillID: b.ID,
		Items:  []ReturnItem{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, 12, env.products.products[p.ID].StockQuantity)
	assert.True(t, rb.TotalAmountReturned.Equal(types.MustMoney("10")))

	require.Len(t, env.audit.entries, 1)
	assert.Equal(t, "anomaly:lot_not_found", env.audit.entries[0].Action)
}

func TestProcess_NoCashierInContext(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct("Tea", 10, "5")
	b := env.addBill(time.Hour, soldLine(p, nil, 2))

	_, err := env.svc.Process(context.Background(), &ProcessRequest{
		BillID: b.ID,
		Items:  []ReturnItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

// --- Search tests ---

func TestSearch_AnnotatesEligibility(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct("Tea", 10, "5")
	fresh := env.addBill(time.Hour, soldLine(p, nil, 2))
	stale := env.addBill(30*time.Hour, soldLine(p, nil, 1))

	results, err := env.svc.Search(env.ctx(), fresh.Number, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].CanBeReturned)
	assert.Len(t, results[0].Bill.Lines, 1)
	assert.Empty(t, results[0].Returns)

	results, err = env.svc.Search(env.ctx(), stale.Number, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].CanBeReturned)
	assert.True(t, results[0].ReturnStatus.IsExpired)
}

func TestSearch_ReturnedBillFlagged(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct("Tea", 10, "5")
	lot := env.addLot(p.ID, 0, lotstock.StatusActive)
	b := env.addBill(time.Hour, soldLine(p, lot, 2))

	created, err := env.svc.Process(env.ctx(), &ProcessRequest{
		BillID: b.ID,
		Items:  []ReturnItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	results, err := env.svc.Search(env.ctx(), b.Number, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].CanBeReturned)
	assert.True(t, results[0].ReturnStatus.HasBeenReturned)

	require.Len(t, results[0].Returns, 1)
	assert.Equal(t, created.Number, results[0].Returns[0].Number)
	assert.True(t, results[0].Returns[0].TotalAmountReturned.Equal(types.MustMoney("5")))
}

func TestSearch_NoMatchIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Search(env.ctx(), "B-99999", 10)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Search(env.ctx(), "   ", 10)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

// --- GetByID ---

func TestGetByID_ReturnsLines(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct("Tea", 10, "5")
	lot := env.addLot(p.ID, 0, lotstock.StatusActive)
	b := env.addBill(time.Hour, soldLine(p, lot, 2))

	created, err := env.svc.Process(env.ctx(), &ProcessRequest{
		BillID: b.ID,
		Items:  []ReturnItem{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	got, err := env.svc.GetByID(env.ctx(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Number, got.Number)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 2, got.Lines[0].Quantity)
}
