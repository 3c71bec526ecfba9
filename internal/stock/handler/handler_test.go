package handler

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/language"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-donation-service/internal/auth"
	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/respond"
	"github.com/fekuna/omnipos-donation-service/internal/stock/repository"
	"github.com/fekuna/omnipos-donation-service/internal/stock/usecase"
	"github.com/fekuna/omnipos-donation-service/internal/testutil"
	"github.com/fekuna/omnipos-donation-service/locales"
	"github.com/fekuna/omnipos-donation-service/pkg/i18n"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

type env struct {
	*testutil.Fixture
	echo *echo.Echo
	resp *respond.Responder
	grpc *StockGRPCHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	f := testutil.NewFixture(t)
	tr := i18n.New(language.English)
	if err := tr.LoadFS(locales.FS, "*.json"); err != nil {
		t.Fatal(err)
	}
	resp := respond.New(tr, logger.NewNop())
	uc := usecase.NewStockUseCase(repository.NewPGRepository(f.DB), nil, nil, nil, logger.NewNop())

	e := echo.New()
	g := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithAssociation(c.Request().Context(), f.Assoc)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	NewStockHandler(uc, resp, logger.NewNop()).Register(g)

	return &env{Fixture: f, echo: e, resp: resp, grpc: NewStockGRPCHandler(uc, resp, logger.NewNop())}
}

func (e *env) do(method, path, body, lang string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	rec := httptest.NewRecorder()
	e.echo.ServeHTTP(rec, req)
	return rec
}

func TestDonateHTTP(t *testing.T) {
	e := newEnv(t)
	rice := testutil.SeedProduct(t, e.DB, e.Assoc.ID, e.Category.ID, "Rice", "2", 3)

	rec := e.do(http.MethodPost, "/api/v1/donations", `{"items":[{"product_id":"`+rice.ID+`","quantity":2}]}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var ok struct {
		Success      bool                `json:"success"`
		Transactions []model.Transaction `json:"transactions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ok); err != nil {
		t.Fatal(err)
	}
	if !ok.Success || len(ok.Transactions) != 1 || ok.Transactions[0].BalanceAfter != 1 {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	rec = e.do(http.MethodPost, "/api/v1/donations", `{"items":[{"product_id":"`+rice.ID+`","quantity":5}]}`, "fr")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var failed respond.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &failed); err != nil {
		t.Fatal(err)
	}
	if failed.Success || failed.Code != "OUT_OF_STOCK" || failed.ProductID != rice.ID {
		t.Errorf("unexpected failure body %+v", failed)
	}
	if failed.Error != "Stock insuffisant pour Rice : demandé 5, disponible 1" {
		t.Errorf("error = %q", failed.Error)
	}
}

func TestReplenishHTTP(t *testing.T) {
	e := newEnv(t)
	rice := testutil.SeedProduct(t, e.DB, e.Assoc.ID, e.Category.ID, "Rice", "2", 0)

	tests := []struct {
		name       string
		productID  string
		body       string
		wantStatus int
	}{
		{"ok", rice.ID, `{"quantity":4}`, http.StatusCreated},
		{"zero", rice.ID, `{"quantity":0}`, http.StatusBadRequest},
		{"malformed", rice.ID, `{"quantity":"x"}`, http.StatusBadRequest},
		{"unknown product", "missing", `{"quantity":1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(http.MethodPost, "/api/v1/products/"+tt.productID+"/replenish", tt.body, "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
	if q := testutil.ProductQuantity(t, e.DB, rice.ID); q != 4 {
		t.Errorf("quantity = %d, want 4", q)
	}
}

func TestListTransactionsHTTP(t *testing.T) {
	e := newEnv(t)
	rice := testutil.SeedProduct(t, e.DB, e.Assoc.ID, e.Category.ID, "Rice", "2", 0)
	e.do(http.MethodPost, "/api/v1/products/"+rice.ID+"/replenish", `{"quantity":4}`, "")

	rec := e.do(http.MethodGet, "/api/v1/transactions?product_id="+rice.ID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list struct {
		Data  []model.Transaction `json:"data"`
		Total int                 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 1 || len(list.Data) != 1 || list.Data[0].Type != model.TransactionIn {
		t.Errorf("unexpected list %s", rec.Body.String())
	}

	rec = e.do(http.MethodGet, "/api/v1/transactions?start_date=01/05/2026", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}
}

func dialStock(t *testing.T, e *env) *StockClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(
		func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
			return handler(auth.WithAssociation(ctx, e.Assoc), req)
		},
	))
	RegisterStockServiceServer(srv, e.grpc)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewStockClient(conn)
}

func TestStockServiceGRPC(t *testing.T) {
	e := newEnv(t)
	client := dialStock(t, e)
	ctx := context.Background()
	rice := testutil.SeedProduct(t, e.DB, e.Assoc.ID, e.Category.ID, "Rice", "2", 0)

	req, _ := structpb.NewStruct(map[string]interface{}{"product_id": rice.ID, "quantity": 3})
	out, err := client.Replenish(ctx, req)
	if err != nil {
		t.Fatalf("Replenish: %v", err)
	}
	if got := out.GetFields()["balance_after"].GetNumberValue(); got != 3 {
		t.Errorf("balance_after = %v, want 3", got)
	}

	req, _ = structpb.NewStruct(map[string]interface{}{
		"items": []interface{}{map[string]interface{}{"product_id": rice.ID, "quantity": 2}},
	})
	out, err = client.DeductMany(ctx, req)
	if err != nil {
		t.Fatalf("DeductMany: %v", err)
	}
	if !out.GetFields()["success"].GetBoolValue() {
		t.Errorf("success = false: %v", out)
	}
	if txns := out.GetFields()["transactions"].GetListValue().GetValues(); len(txns) != 1 {
		t.Errorf("got %d transactions, want 1", len(txns))
	}

	req, _ = structpb.NewStruct(map[string]interface{}{
		"items": []interface{}{map[string]interface{}{"product_id": rice.ID, "quantity": 9}},
	})
	_, err = client.DeductMany(ctx, req)
	st := status.Convert(err)
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("code = %v, want FailedPrecondition (%v)", st.Code(), err)
	}
	details := st.Details()
	if len(details) != 1 {
		t.Fatalf("got %d details, want 1", len(details))
	}
	body, ok := details[0].(*structpb.Struct)
	if !ok {
		t.Fatalf("detail is %T", details[0])
	}
	if body.GetFields()["code"].GetStringValue() != "OUT_OF_STOCK" ||
		body.GetFields()["product_id"].GetStringValue() != rice.ID {
		t.Errorf("unexpected details %v", body)
	}
	if q := testutil.ProductQuantity(t, e.DB, rice.ID); q != 1 {
		t.Errorf("quantity = %d, want 1", q)
	}
}

func TestStockServiceGRPCValidation(t *testing.T) {
	e := newEnv(t)
	client := dialStock(t, e)

	req, _ := structpb.NewStruct(map[string]interface{}{"items": []interface{}{}})
	_, err := client.DeductMany(context.Background(), req)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", status.Code(err))
	}

	req, _ = structpb.NewStruct(map[string]interface{}{"product_id": "x", "quantity": 1.5})
	_, err = client.Replenish(context.Background(), req)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", status.Code(err))
	}
}
