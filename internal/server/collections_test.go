package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/askdb/config"
	"github.com/mohammad-safakhou/askdb/internal/store"
)

func newCollectionsHandler(st store.Store) *CollectionsHandler {
	return &CollectionsHandler{
		Store:       st,
		Translators: newTranslators(st, &stubProvider{}, config.TranslatorConfig{Attempts: 1, RetryDelay: time.Millisecond}),
	}
}

func TestCollectionsList(t *testing.T) {
	e := echo.New()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	handler := newCollectionsHandler(&store.Postgres{DB: db})

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT c.name, COUNT(d.id), c.created_at
FROM collections c
LEFT JOIN documents d ON d.collection = c.name
GROUP BY c.name, c.created_at
ORDER BY c.name
`)).WillReturnRows(sqlmock.NewRows([]string{"name", "count", "created_at"}).
		AddRow("phones", 12, created).
		AddRow("products", 3, created))

	req := httptest.NewRequest(http.MethodGet, "/api/collections", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := handler.list(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	var infos []store.CollectionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "phones" || infos[0].Documents != 12 {
		t.Fatalf("unexpected collections: %+v", infos)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func multipartCSV(t *testing.T, contents string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "products.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(contents)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestImportCSV(t *testing.T) {
	e := echo.New()
	st := &stubStore{}
	handler := newCollectionsHandler(st)

	body, contentType := multipartCSV(t, "Brand,Price\nSamsung,699\nApple,1999\nNokia,49\n")
	req := httptest.NewRequest(http.MethodPost, "/api/collections/products/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("name")
	ctx.SetParamValues("products")

	if err := handler.importCSV(ctx); err != nil {
		t.Fatalf("importCSV: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 got %d", rec.Code)
	}
	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["inserted"] != 3 {
		t.Fatalf("inserted = %d, want 3", resp["inserted"])
	}
	if len(st.inserted) != 3 {
		t.Fatalf("store received %d records", len(st.inserted))
	}
	if st.inserted[0].Fields["Price"] != float64(699) {
		t.Fatalf("price not inferred as number: %v", st.inserted[0].Fields["Price"])
	}
}

func TestImportMissingFile(t *testing.T) {
	e := echo.New()
	handler := newCollectionsHandler(&stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/collections/products/import", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("name")
	ctx.SetParamValues("products")

	err := handler.importCSV(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 error, got %#v", err)
	}
}

func TestFieldsFromSample(t *testing.T) {
	e := echo.New()
	handler := newCollectionsHandler(&stubStore{sample: productSample(), hasSample: true})

	req := httptest.NewRequest(http.MethodGet, "/api/collections/products/fields", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("name")
	ctx.SetParamValues("products")

	if err := handler.fields(ctx); err != nil {
		t.Fatalf("fields: %v", err)
	}
	var resp struct {
		Collection string   `json:"collection"`
		Fields     []string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Collection != "products" {
		t.Fatalf("collection = %q", resp.Collection)
	}
	want := []string{"Brand", "Category", "Price"}
	if len(resp.Fields) != len(want) {
		t.Fatalf("fields = %v, want %v", resp.Fields, want)
	}
	for i := range want {
		if resp.Fields[i] != want[i] {
			t.Fatalf("fields = %v, want %v", resp.Fields, want)
		}
	}
}

func TestFieldsEmptyCollection(t *testing.T) {
	e := echo.New()
	handler := newCollectionsHandler(&stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/collections/empty/fields", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("name")
	ctx.SetParamValues("empty")

	if err := handler.fields(ctx); err != nil {
		t.Fatalf("fields: %v", err)
	}
	var resp struct {
		Fields []string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Fields == nil || len(resp.Fields) != 0 {
		t.Fatalf("expected empty field list, got %v", resp.Fields)
	}
}

func TestRecordsPreviewLimit(t *testing.T) {
	e := echo.New()
	st := &stubStore{records: []store.Record{
		{ID: 1, Fields: map[string]interface{}{"Brand": "Samsung"}},
		{ID: 2, Fields: map[string]interface{}{"Brand": "Apple"}},
		{ID: 3, Fields: map[string]interface{}{"Brand": "Nokia"}},
	}}
	handler := newCollectionsHandler(st)

	req := httptest.NewRequest(http.MethodGet, "/api/collections/products/records?limit=2", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("name")
	ctx.SetParamValues("products")

	if err := handler.records(ctx); err != nil {
		t.Fatalf("records: %v", err)
	}
	var resp struct {
		Total   int                      `json:"total"`
		Records []map[string]interface{} `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 3 || len(resp.Records) != 2 {
		t.Fatalf("total=%d records=%d", resp.Total, len(resp.Records))
	}
	if _, ok := resp.Records[0]["id"]; ok {
		t.Fatal("record identifiers must not be exposed")
	}
}

func TestSearchCollection(t *testing.T) {
	e := echo.New()
	st := &stubStore{records: []store.Record{
		{ID: 1, Fields: map[string]interface{}{"Brand": "Samsung", "Category": "Phone"}},
		{ID: 2, Fields: map[string]interface{}{"Brand": "Apple", "Category": "Laptop"}},
		{ID: 3, Fields: map[string]interface{}{"Brand": "Samsung", "Category": "TV"}},
	}}
	handler := newCollectionsHandler(st)

	req := httptest.NewRequest(http.MethodGet, "/api/collections/products/search?q=samsung", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("name")
	ctx.SetParamValues("products")

	if err := handler.search(ctx); err != nil {
		t.Fatalf("search: %v", err)
	}
	var resp struct {
		Count int `json:"count"`
		Hits  []struct {
			Rank   int                    `json:"rank"`
			Record map[string]interface{} `json:"record"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}
	for _, hit := range resp.Hits {
		if hit.Record["Brand"] != "Samsung" {
			t.Fatalf("unexpected hit: %+v", hit)
		}
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	e := echo.New()
	handler := newCollectionsHandler(&stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/collections/products/search", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("name")
	ctx.SetParamValues("products")

	err := handler.search(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 error, got %#v", err)
	}
}
