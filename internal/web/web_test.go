package web

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ichStark/byen-tech/internal/config"
	"github.com/ichStark/byen-tech/internal/service"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(config.ConvertConfig{
		MaxFiles:       50,
		MaxFileMB:      32,
		JPEGQuality:    95,
		DefaultDPI:     96,
		Workers:        2,
		ValidateOutput: true,
	})
	mux := http.NewServeMux()
	New(svc, config.ServerConfig{MaxUploadMB: 64, MaxConcurrent: 2}).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 50, G: 100, B: 150, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type filePart struct {
	name string
	data []byte
}

func multipartBody(t *testing.T, files []filePart, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		fw, err := mw.CreateFormFile("files", f.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(f.data); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()
	return &body, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestConvertReturnsPDF(t *testing.T) {
	srv := testServer(t)

	body, ctype := multipartBody(t,
		[]filePart{{"one.png", pngBytes(t, 40, 60)}, {"two.png", pngBytes(t, 60, 40)}},
		map[string]string{"orientation": "portrait", "fit": "true", "margin": "small"},
	)
	resp, err := http.Post(srv.URL+"/convert", ctype, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/pdf" {
		t.Errorf("content type = %q, want application/pdf", got)
	}
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="byentech-merged.pdf"` {
		t.Errorf("content disposition = %q", got)
	}

	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("%PDF")) {
		t.Error("response body is not a PDF stream")
	}
}

func TestConvertMissingFilesField(t *testing.T) {
	srv := testServer(t)

	body, ctype := multipartBody(t, nil, map[string]string{"orientation": "auto"})
	resp, err := http.Post(srv.URL+"/convert", ctype, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload["error"] == "" {
		t.Error("expected error message in JSON body")
	}
}

func TestConvertRejectsNonImage(t *testing.T) {
	srv := testServer(t)

	body, ctype := multipartBody(t, []filePart{{"doc.png", []byte("%PDF-1.4 not an image")}}, nil)
	resp, err := http.Post(srv.URL+"/convert", ctype, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestConvertRejectsDisallowedExtension(t *testing.T) {
	srv := testServer(t)

	body, ctype := multipartBody(t, []filePart{{"report.gif", pngBytes(t, 10, 10)}}, nil)
	resp, err := http.Post(srv.URL+"/convert", ctype, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload["error"] != "File type not allowed: report.gif" {
		t.Errorf("error = %q", payload["error"])
	}
}

func TestConvertRejectsBadOptions(t *testing.T) {
	srv := testServer(t)

	body, ctype := multipartBody(t, []filePart{{"one.png", pngBytes(t, 10, 10)}},
		map[string]string{"margin": "enormous"})
	resp, err := http.Post(srv.URL+"/convert", ctype, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestConvertCorruptImageFailsBatch(t *testing.T) {
	srv := testServer(t)

	corrupt := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, []byte("truncated")...)
	body, ctype := multipartBody(t, []filePart{
		{"ok.png", pngBytes(t, 10, 10)},
		{"broken.png", corrupt},
	}, nil)
	resp, err := http.Post(srv.URL+"/convert", ctype, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload["error"] == "" {
		t.Error("expected error message naming the failed conversion")
	}
}

func TestConvertMethodNotAllowed(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/convert")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestConvertPreflight(t *testing.T) {
	srv := testServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/convert", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Origin", "https://app.example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q, want *", got)
	}
}

func TestConvertCORSAllowList(t *testing.T) {
	svc := service.New(config.ConvertConfig{MaxFiles: 50, MaxFileMB: 32, JPEGQuality: 95, DefaultDPI: 96, Workers: 2})
	mux := http.NewServeMux()
	New(svc, config.ServerConfig{
		MaxUploadMB:    64,
		MaxConcurrent:  2,
		AllowedOrigins: []string{"https://allowed.example.com"},
	}).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for _, tc := range []struct {
		origin string
		want   string
	}{
		{"https://allowed.example.com", "https://allowed.example.com"},
		{"https://other.example.com", ""},
	} {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+"/convert", nil)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Origin", tc.origin)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tc.want {
			t.Errorf("origin %s: allow origin = %q, want %q", tc.origin, got, tc.want)
		}
	}
}
