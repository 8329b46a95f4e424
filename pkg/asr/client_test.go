package asr_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nacho7823/voiceAsisstant/pkg/asr"
	"github.com/Nacho7823/voiceAsisstant/pkg/audio"
)

func TestTranscribe(t *testing.T) {
	var gotModelSize, gotLanguage string
	var gotWAV []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModelSize = r.FormValue("model_size")
		gotLanguage = r.FormValue("language")
		file, _, err := r.FormFile("audio_file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		var buf bytes.Buffer
		buf.ReadFrom(file)
		gotWAV = buf.Bytes()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model_used":"small","detected_language":"en","result_text":" hello there "}`))
	}))
	defer srv.Close()

	c := asr.NewClient(srv.URL, asr.WithModelSize("small"), asr.WithLanguage("en"))
	samples := make([]float32, 16000)
	res, err := c.Transcribe(context.Background(), samples, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Text != "hello there" {
		t.Errorf("Text = %q, want trimmed transcript", res.Text)
	}
	if res.Language != "en" {
		t.Errorf("Language = %q, want en", res.Language)
	}
	if gotModelSize != "small" || gotLanguage != "en" {
		t.Errorf("hints = (%q, %q), want (small, en)", gotModelSize, gotLanguage)
	}

	decoded, rate, err := audio.DecodeWAV(bytes.NewReader(gotWAV))
	if err != nil {
		t.Fatalf("uploaded audio is not valid WAV: %v", err)
	}
	if rate != 16000 {
		t.Errorf("uploaded sample rate = %d, want 16000", rate)
	}
	if len(decoded) != len(samples) {
		t.Errorf("uploaded %d samples, want %d", len(decoded), len(samples))
	}
}

func TestTranscribeMissingText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model_used":"small"}`))
	}))
	defer srv.Close()

	c := asr.NewClient(srv.URL)
	_, err := c.Transcribe(context.Background(), make([]float32, 100), 16000)
	if !errors.Is(err, asr.ErrNoTranscript) {
		t.Errorf("err = %v, want ErrNoTranscript", err)
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "whisper backend down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := asr.NewClient(srv.URL)
	_, err := c.Transcribe(context.Background(), make([]float32, 100), 16000)
	var apiErr *asr.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
}
