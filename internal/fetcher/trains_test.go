package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchTrains(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     bool
		wantSuccess bool
		wantTrains  int
		wantNext    string
	}{
		{
			name:   "full payload",
			status: http.StatusOK,
			body: `{"success":true,"next_train":{"train_no":"12627","name":"Karnataka Exp","eta_at_crossing":"2025-08-26T10:15:00+05:30"},
				"trains":[{"train_no":"12627"},{"train_no":"16022"}],"cache_info":{"cached":true,"age_seconds":12.5},"total_trains":2}`,
			wantSuccess: true,
			wantTrains:  2,
			wantNext:    "12627",
		},
		{
			name:        "api failure with 500 status",
			status:      http.StatusInternalServerError,
			body:        `{"success":false,"error":"upstream timeout"}`,
			wantSuccess: false,
		},
		{
			name:    "html error page",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			status:  http.StatusOK,
			body:    `{"success":tru`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			resp, err := NewClient(srv.URL, 0).FetchTrains(context.Background())
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchTrains: %v", err)
			}
			if resp.Success != tc.wantSuccess || len(resp.Trains) != tc.wantTrains {
				t.Errorf("got success=%v trains=%d", resp.Success, len(resp.Trains))
			}
			if tc.wantNext != "" && (resp.NextTrain == nil || resp.NextTrain.TrainNo != tc.wantNext) {
				t.Errorf("next train = %+v, expected %s", resp.NextTrain, tc.wantNext)
			}
		})
	}
}

func TestFetchTrainsCacheInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"trains":[],"cache_info":{"cached":false},"total_trains":0}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, 0).FetchTrains(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if resp.CacheInfo == nil || resp.CacheInfo.Cached || resp.CacheInfo.AgeSeconds != nil {
		t.Errorf("cache info = %+v", resp.CacheInfo)
	}
	if resp.TotalTrains == nil || *resp.TotalTrains != 0 {
		t.Errorf("total trains = %v", resp.TotalTrains)
	}
	if resp.NextTrain != nil {
		t.Error("next train should be absent")
	}
}

func TestFetchTrainsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := NewClient(url, 0).FetchTrains(context.Background()); err == nil {
		t.Error("expected error from closed server")
	}
}

func TestResponseErr(t *testing.T) {
	ok := &TrainsResponse{Success: true}
	if ok.Err() != nil {
		t.Errorf("Err() on success = %v", ok.Err())
	}

	bad := &TrainsResponse{Error: "x"}
	err := bad.Err()
	if !errors.Is(err, ErrAPI) || err.Error() != "train API reported failure: x" {
		t.Errorf("Err() = %v", err)
	}
}

func TestSortByArrival(t *testing.T) {
	in := []Train{
		{TrainNo: "c", ETA: "2025-08-26T10:30:00Z"},
		{TrainNo: "bad", ETA: "later"},
		{TrainNo: "a", ETA: "2025-08-26T10:00:00Z"},
		{TrainNo: "b", ETA: "2025-08-26T10:15:00Z"},
	}

	got := SortByArrival(in)
	want := []string{"a", "b", "c", "bad"}
	for i, w := range want {
		if got[i].TrainNo != w {
			t.Fatalf("order = %v, expected %v", got, want)
		}
	}
	if in[0].TrainNo != "c" {
		t.Error("SortByArrival modified its input")
	}
}
