package soap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

func TestPostSOAPFramesRequestAndParsesResponse(t *testing.T) {
	var (
		gotPath   string
		gotAction string
		gotCType  string
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAction = r.Header.Get("SOAPAction")
		gotCType = r.Header.Get("Content-type")
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">`+
			`<soap:Body><GetListCollectionResponse xmlns="http://schemas.microsoft.com/sharepoint/soap/"/>`+
			`</soap:Body></soap:Envelope>`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/site", nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	payload, err := client.PostSOAP(context.Background(), "_vti_bin/Lists.asmx",
		spxml.SP("GetListCollection"),
		"http://schemas.microsoft.com/sharepoint/soap/GetListCollection")
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if payload.Space != spxml.NSSP || payload.Local != "GetListCollectionResponse" {
		t.Fatalf("payload = {%s}%s", payload.Space, payload.Local)
	}
	if gotPath != "/site/_vti_bin/Lists.asmx" {
		t.Fatalf("request path = %q", gotPath)
	}
	if gotAction != "http://schemas.microsoft.com/sharepoint/soap/GetListCollection" {
		t.Fatalf("SOAPAction = %q", gotAction)
	}
	if gotCType != "text/xml; charset=utf-8" {
		t.Fatalf("Content-type = %q", gotCType)
	}

	sent, err := spxml.Parse(gotBody)
	if err != nil {
		t.Fatalf("reparse request body: %v", err)
	}
	inner, err := spxml.BodyPayload(sent)
	if err != nil {
		t.Fatalf("request body payload: %v", err)
	}
	if inner.Space != spxml.NSSP || inner.Local != "GetListCollection" {
		t.Fatalf("request payload = {%s}%s", inner.Space, inner.Local)
	}
}

func TestPostSOAPRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.PostSOAP(context.Background(), "_vti_bin/Lists.asmx", spxml.SP("GetListCollection"), ""); err == nil {
		t.Fatal("expected an error for a 401 response")
	}
}

func TestRelativeResolvesUnderSite(t *testing.T) {
	client, err := NewClient("https://example.org/sites/unit", nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	got := client.Relative("_vti_bin/Lists.asmx")
	want := "https://example.org/sites/unit/_vti_bin/Lists.asmx"
	if got != want {
		t.Fatalf("Relative = %q, want %q", got, want)
	}
}

func TestBasicAuthIsPreemptive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "unit" || pass != "secret" {
			http.Error(w, "denied", http.StatusUnauthorized)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	httpClient := BasicAuth("unit", "secret")
	resp, err := httpClient.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %s, want 200 without a challenge round trip", resp.Status)
	}
}
