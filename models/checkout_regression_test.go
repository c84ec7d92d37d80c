package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranasoft/kirana_backend/config"
	"github.com/kiranasoft/kirana_backend/models"
	"github.com/kiranasoft/kirana_backend/utils"
)

// setupIntegration boots MySQL and Redis in docker, connects, migrates and
// seeds. Shared by all checkout/held-bill regression tests in this file.
func setupIntegration(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "kirana_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx := context.Background()
	if err := models.EnsureDefaultSettings(ctx); err != nil {
		t.Fatalf("EnsureDefaultSettings: %v", err)
	}

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUsernameInContext(ctx, "test@local")
	ctx = utils.SetUserFullNameInContext(ctx, "Test Cashier")
	return ctx
}

func createTestProduct(t *testing.T, ctx context.Context, name string, price string, gst string, openingStock string) *models.Product {
	t.Helper()
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:         name,
		Unit:         "pc",
		SellingPrice: dec(price),
		GstRate:      dec(gst),
		OpeningStock: dec(openingStock),
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", name, err)
	}
	return product
}

func cartFor(product *models.Product, qty string) *models.CartSnapshot {
	cart := models.NewCart()
	cart.AddItem(product, dec(qty))
	return cart.Snapshot()
}

func TestFinalizeSale_CommitsSaleLedgerAndProjectionAtomically(t *testing.T) {
	ctx := setupIntegration(t)

	product := createTestProduct(t, ctx, "Parle-G 250g", "22.00", "5", "10")

	received := dec("50.00")
	result, err := models.FinalizeSale(ctx, cartFor(product, "2"), &models.NewCheckout{
		AttemptId:      uuid.NewString(),
		PaymentMode:    models.PaymentModeCash,
		AmountReceived: &received,
	})
	if err != nil {
		t.Fatalf("FinalizeSale: %v", err)
	}

	sale := result.Sale
	if matched, _ := regexp.MatchString(`^INV-\d{4}-00001$`, sale.InvoiceNumber); !matched {
		t.Fatalf("unexpected first invoice number %q", sale.InvoiceNumber)
	}
	if sale.TotalAmount.Cmp(dec("44.00")) != 0 {
		t.Fatalf("total: expected 44.00, got %s", sale.TotalAmount)
	}
	if result.ChangeReturned.Cmp(dec("6.00")) != 0 {
		t.Fatalf("change: expected 6.00, got %s", result.ChangeReturned)
	}

	fresh, err := models.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if fresh.CurrentStock.Cmp(dec("8")) != 0 {
		t.Fatalf("stock: expected 8 after sale, got %s", fresh.CurrentStock)
	}

	movements, err := models.GetStockMovements(ctx, &product.ID, 10)
	if err != nil {
		t.Fatalf("GetStockMovements: %v", err)
	}
	// opening stock_in plus the sale's stock_out
	if len(movements) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(movements))
	}
	latest := movements[0]
	if latest.MovementType != models.MovementTypeStockOut {
		t.Fatalf("expected stock_out, got %s", latest.MovementType)
	}
	if latest.SaleId == nil || *latest.SaleId != sale.ID {
		t.Fatal("ledger row must reference the sale")
	}
	if latest.PreviousStock.Cmp(dec("10")) != 0 || latest.NewStock.Cmp(dec("8")) != 0 {
		t.Fatalf("ledger row: expected 10 -> 8, got %s -> %s", latest.PreviousStock, latest.NewStock)
	}
}

// Retrying a finalize with the same attempt id must return the recorded sale
// instead of charging the customer twice.
func TestFinalizeSale_RetryWithSameAttemptIdIsIdempotent(t *testing.T) {
	ctx := setupIntegration(t)

	product := createTestProduct(t, ctx, "Sunflower Oil 500ml", "10.00", "18", "10")
	attemptId := uuid.NewString()
	snap := cartFor(product, "3")

	first, err := models.FinalizeSale(ctx, snap, &models.NewCheckout{
		AttemptId:   attemptId,
		PaymentMode: models.PaymentModeUpi,
	})
	if err != nil {
		t.Fatalf("first FinalizeSale: %v", err)
	}

	second, err := models.FinalizeSale(ctx, snap, &models.NewCheckout{
		AttemptId:   attemptId,
		PaymentMode: models.PaymentModeUpi,
	})
	if err != nil {
		t.Fatalf("retried FinalizeSale: %v", err)
	}

	if first.Sale.ID != second.Sale.ID {
		t.Fatalf("retry created a second sale: %d vs %d", first.Sale.ID, second.Sale.ID)
	}
	if first.Sale.InvoiceNumber != second.Sale.InvoiceNumber {
		t.Fatalf("retry changed invoice number: %q vs %q", first.Sale.InvoiceNumber, second.Sale.InvoiceNumber)
	}

	fresh, _ := models.GetProduct(ctx, product.ID)
	if fresh.CurrentStock.Cmp(dec("7")) != 0 {
		t.Fatalf("stock decremented more than once: %s", fresh.CurrentStock)
	}
}

// A crashed finalize leaves a STARTED key behind. Once stale, two retries
// racing to take it over must still produce exactly one sale: the takeover is
// a guarded update, so the loser backs off instead of running the attempt a
// second time, and a losing run can never overwrite the winner's success
// marker with FAILED.
func TestFinalizeSale_ConcurrentStaleAttemptTakeover(t *testing.T) {
	ctx := setupIntegration(t)
	db := config.GetDB()

	product := createTestProduct(t, ctx, "Tea Dust 250g", "30.00", "5", "10")
	attemptId := uuid.NewString()

	stale := models.IdempotencyKey{
		HandlerName: "FinalizeSale",
		AttemptId:   attemptId,
		Status:      models.IdempotencyStatusStarted,
	}
	if err := db.WithContext(ctx).Create(&stale).Error; err != nil {
		t.Fatalf("seed stale attempt: %v", err)
	}
	backdated := time.Now().Add(-5 * time.Minute)
	if err := db.WithContext(ctx).Exec(
		"UPDATE idempotency_keys SET updated_at = ? WHERE id = ?", backdated, stale.ID).Error; err != nil {
		t.Fatalf("backdate stale attempt: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]*models.CheckoutResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = models.FinalizeSale(ctx, cartFor(product, "2"), &models.NewCheckout{
				AttemptId:   attemptId,
				PaymentMode: models.PaymentModeUpi,
			})
		}(i)
	}
	wg.Wait()

	var committed *models.Sale
	for i := 0; i < 2; i++ {
		switch {
		case errs[i] == nil:
			if committed != nil && committed.ID != results[i].Sale.ID {
				t.Fatalf("racers committed different sales: %d vs %d", committed.ID, results[i].Sale.ID)
			}
			committed = results[i].Sale
		case errors.Is(errs[i], utils.ErrorAttemptInProgress):
			// the loser of the takeover backs off
		default:
			t.Fatalf("unexpected error: %v", errs[i])
		}
	}
	if committed == nil {
		t.Fatal("no racer committed the sale")
	}

	fresh, _ := models.GetProduct(ctx, product.ID)
	if fresh.CurrentStock.Cmp(dec("8")) != 0 {
		t.Fatalf("stock decremented more than once: %s", fresh.CurrentStock)
	}

	var key models.IdempotencyKey
	if err := db.WithContext(ctx).Where("attempt_id = ?", attemptId).First(&key).Error; err != nil {
		t.Fatalf("load attempt key: %v", err)
	}
	if key.Status != models.IdempotencyStatusSucceeded {
		t.Fatalf("success marker was overwritten: status %q", key.Status)
	}

	retry, err := models.FinalizeSale(ctx, cartFor(product, "2"), &models.NewCheckout{
		AttemptId:   attemptId,
		PaymentMode: models.PaymentModeUpi,
	})
	if err != nil {
		t.Fatalf("retry after the race: %v", err)
	}
	if retry.Sale.ID != committed.ID {
		t.Fatalf("retry created a second sale: %d vs %d", committed.ID, retry.Sale.ID)
	}
}

// An ambiguous commit can leave a committed sale behind a key marked FAILED.
// The takeover settles it through the unique invoice number: the retry gets
// the committed sale back instead of re-running the attempt into the unique
// index forever.
func TestFinalizeSale_RetryAfterAmbiguousCommitFindsSaleByInvoiceNumber(t *testing.T) {
	ctx := setupIntegration(t)
	db := config.GetDB()

	product := createTestProduct(t, ctx, "Masala Mix 100g", "25.00", "12", "6")
	attemptId := uuid.NewString()

	first, err := models.FinalizeSale(ctx, cartFor(product, "2"), &models.NewCheckout{
		AttemptId:   attemptId,
		PaymentMode: models.PaymentModeUpi,
	})
	if err != nil {
		t.Fatalf("first FinalizeSale: %v", err)
	}

	// the commit landed but the caller never learned: fake the lost marker
	if err := db.WithContext(ctx).Exec(
		"UPDATE idempotency_keys SET status = ?, sale_id = NULL, updated_at = ? WHERE attempt_id = ?",
		models.IdempotencyStatusFailed, time.Now().Add(-5*time.Minute), attemptId).Error; err != nil {
		t.Fatalf("fake lost success marker: %v", err)
	}

	retry, err := models.FinalizeSale(ctx, cartFor(product, "2"), &models.NewCheckout{
		AttemptId:   attemptId,
		PaymentMode: models.PaymentModeUpi,
	})
	if err != nil {
		t.Fatalf("retry after ambiguous commit: %v", err)
	}
	if retry.Sale.ID != first.Sale.ID {
		t.Fatalf("retry created a second sale: %d vs %d", first.Sale.ID, retry.Sale.ID)
	}

	fresh, _ := models.GetProduct(ctx, product.ID)
	if fresh.CurrentStock.Cmp(dec("4")) != 0 {
		t.Fatalf("stock decremented more than once: %s", fresh.CurrentStock)
	}

	var key models.IdempotencyKey
	if err := db.WithContext(ctx).Where("attempt_id = ?", attemptId).First(&key).Error; err != nil {
		t.Fatalf("load attempt key: %v", err)
	}
	if key.Status != models.IdempotencyStatusSucceeded || key.SaleId == nil || *key.SaleId != first.Sale.ID {
		t.Fatalf("key not repaired: status %q sale_id %v", key.Status, key.SaleId)
	}
}

func TestFinalizeSale_InsufficientCashCreatesNothing(t *testing.T) {
	ctx := setupIntegration(t)

	product := createTestProduct(t, ctx, "Atta 5kg", "66.60", "0", "4")
	received := dec("60.00")
	_, err := models.FinalizeSale(ctx, cartFor(product, "1"), &models.NewCheckout{
		AttemptId:      uuid.NewString(),
		PaymentMode:    models.PaymentModeCash,
		AmountReceived: &received,
	})
	if !errors.Is(err, utils.ErrorInsufficientPayment) {
		t.Fatalf("expected ErrorInsufficientPayment, got %v", err)
	}

	sales, err := models.GetTodaySales(ctx)
	if err != nil {
		t.Fatalf("GetTodaySales: %v", err)
	}
	if len(sales) != 0 {
		t.Fatal("no sale may exist after a rejected payment")
	}
	fresh, _ := models.GetProduct(ctx, product.ID)
	if fresh.CurrentStock.Cmp(dec("4")) != 0 {
		t.Fatalf("stock must be untouched, got %s", fresh.CurrentStock)
	}
}

// Stock 5, two concurrent sales of 3 each: exactly one commits, stock ends
// at 2, and the loser's invoice number is never reused.
func TestFinalizeSale_ConcurrentOversellRejected(t *testing.T) {
	ctx := setupIntegration(t)

	product := createTestProduct(t, ctx, "Sugar 1kg", "45.00", "5", "5")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := models.FinalizeSale(ctx, cartFor(product, "3"), &models.NewCheckout{
				AttemptId:   uuid.NewString(),
				PaymentMode: models.PaymentModeUpi,
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	var conflicts, successes int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, utils.ErrorStockConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("expected exactly one success and one conflict, got %d/%d", successes, conflicts)
	}

	fresh, _ := models.GetProduct(ctx, product.ID)
	if fresh.CurrentStock.Cmp(dec("2")) != 0 {
		t.Fatalf("stock: expected 2, got %s", fresh.CurrentStock)
	}
}

func TestConcurrentCheckouts_GetDistinctInvoiceNumbers(t *testing.T) {
	ctx := setupIntegration(t)

	product := createTestProduct(t, ctx, "Toor Dal 1kg", "120.00", "5", "100")

	const n = 8
	var wg sync.WaitGroup
	numbers := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := models.FinalizeSale(ctx, cartFor(product, "1"), &models.NewCheckout{
				AttemptId:   uuid.NewString(),
				PaymentMode: models.PaymentModeCard,
			})
			if err != nil {
				t.Errorf("FinalizeSale #%d: %v", i, err)
				return
			}
			numbers[i] = result.Sale.InvoiceNumber
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, num := range numbers {
		if num == "" {
			continue
		}
		if seen[num] {
			t.Fatalf("duplicate invoice number %q", num)
		}
		seen[num] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct invoice numbers, got %d", n, len(seen))
	}
}

// Two terminals racing to resume the same held bill: one wins, the loser
// gets not-found and the bill is gone.
func TestResumeHeldBill_ExactlyOnce(t *testing.T) {
	ctx := setupIntegration(t)

	product := createTestProduct(t, ctx, "Tea 250g", "150.00", "5", "10")
	bill, err := models.HoldCart(ctx, cartFor(product, "2"), "Sharma ji")
	if err != nil {
		t.Fatalf("HoldCart: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := models.ResumeHeldBill(ctx, bill.ID)
			results[i] = err
		}(i)
	}
	wg.Wait()

	var wins, notFound int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, utils.ErrorRecordNotFound):
			notFound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || notFound != 1 {
		t.Fatalf("expected exactly one winner, got %d wins / %d not-found", wins, notFound)
	}

	remaining, err := models.ListHeldBills(ctx)
	if err != nil {
		t.Fatalf("ListHeldBills: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("resumed bill must leave the pending list, %d left", len(remaining))
	}
}

func TestHoldThenResume_RoundTripsTheCart(t *testing.T) {
	ctx := setupIntegration(t)

	p1 := createTestProduct(t, ctx, "Biscuit", "22.00", "5", "10")
	p2 := createTestProduct(t, ctx, "Oil", "10.00", "18", "10")

	cart := models.NewCart()
	cart.AddItem(p1, dec("2"))
	cart.AddItem(p2, dec("3"))
	cart.SetDiscount(dec("10"), utils.DiscountTypePercent)

	bill, err := models.HoldCart(ctx, cart.Snapshot(), "evening customer")
	if err != nil {
		t.Fatalf("HoldCart: %v", err)
	}

	resumed, err := models.ResumeHeldBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("ResumeHeldBill: %v", err)
	}
	snap, err := resumed.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if len(snap.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(snap.Items))
	}
	if snap.Total().Cmp(dec("66.60")) != 0 {
		t.Fatalf("total: expected 66.60, got %s", snap.Total())
	}
	if snap.DiscountType != utils.DiscountTypePercent || snap.Discount.Cmp(dec("10")) != 0 {
		t.Fatal("discount must survive the round trip")
	}
}

// Explicit adjustment sets the absolute on-hand; the ledger records |delta|.
func TestRecordStockMovement_Adjustment(t *testing.T) {
	ctx := setupIntegration(t)

	product := createTestProduct(t, ctx, "Rice 10kg", "500.00", "5", "20")
	target := dec("17")
	movement, err := models.RecordStockMovement(ctx, &models.NewStockMovement{
		ProductId:    product.ID,
		MovementType: models.MovementTypeAdjustment,
		TargetStock:  &target,
		Reason:       "yearly count",
	})
	if err != nil {
		t.Fatalf("RecordStockMovement: %v", err)
	}
	if movement.Quantity.Cmp(dec("3")) != 0 {
		t.Fatalf("expected |delta| 3, got %s", movement.Quantity)
	}

	fresh, _ := models.GetProduct(ctx, product.ID)
	if fresh.CurrentStock.Cmp(dec("17")) != 0 {
		t.Fatalf("stock: expected 17, got %s", fresh.CurrentStock)
	}
}

func TestReconciliationChecks_CleanLedgerReportsNothing(t *testing.T) {
	ctx := setupIntegration(t)

	product := createTestProduct(t, ctx, "Salt 1kg", "25.00", "0", "12")
	_, err := models.FinalizeSale(ctx, cartFor(product, "2"), &models.NewCheckout{
		AttemptId:   uuid.NewString(),
		PaymentMode: models.PaymentModeUpi,
	})
	if err != nil {
		t.Fatalf("FinalizeSale: %v", err)
	}

	if _, err := models.RunReconciliationChecks(ctx); err != nil {
		t.Fatalf("RunReconciliationChecks: %v", err)
	}
	reports, err := models.GetReconciliationReports(ctx, 10)
	if err != nil {
		t.Fatalf("GetReconciliationReports: %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("clean data must produce no drift reports, got %d", len(reports))
	}
}

func TestReconciliationChecks_DetectsProjectionDrift(t *testing.T) {
	ctx := setupIntegration(t)

	product := createTestProduct(t, ctx, "Ghee 1kg", "600.00", "12", "10")

	// corrupt the projection behind the ledger's back
	db := config.GetDB()
	if err := db.Exec("UPDATE products SET current_stock = 99 WHERE id = ?", product.ID).Error; err != nil {
		t.Fatalf("corrupt projection: %v", err)
	}

	if _, err := models.RunReconciliationChecks(ctx); err != nil {
		t.Fatalf("RunReconciliationChecks: %v", err)
	}
	reports, err := models.GetReconciliationReports(ctx, 10)
	if err != nil {
		t.Fatalf("GetReconciliationReports: %v", err)
	}
	found := false
	for _, r := range reports {
		if r.CheckType == "STOCK_PROJECTION" && r.EntityId == product.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a STOCK_PROJECTION drift report")
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("kirana-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("kirana-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=kirana_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
