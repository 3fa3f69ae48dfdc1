package detector

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHandLandmarks_ToFrame(t *testing.T) {
	t.Run("scales to pixels and keeps ids", func(t *testing.T) {
		var hand HandLandmarks
		for i := 0; i < NumLandmarks; i++ {
			hand.Points[i] = Point3D{X: 0.25, Y: 0.5}
		}
		hand.Points[IndexTip] = Point3D{X: 0.5, Y: 0.25}

		frame := hand.ToFrame(640, 480)

		if len(frame.Landmarks) != NumLandmarks {
			t.Fatalf("expected %d landmarks, got %d", NumLandmarks, len(frame.Landmarks))
		}
		for i, lm := range frame.Landmarks {
			if lm.ID != i {
				t.Errorf("landmark %d has id %d", i, lm.ID)
			}
		}
		want := Landmark{ID: IndexTip, X: 320, Y: 120}
		if diff := cmp.Diff(want, frame.Landmarks[IndexTip]); diff != "" {
			t.Errorf("index tip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("bounding box spans all points", func(t *testing.T) {
		frame := OpenPalmLandmarks().ToFrame(640, 480)

		if frame.BBox == nil {
			t.Fatal("expected bounding box")
		}
		for _, lm := range frame.Landmarks {
			if lm.X < frame.BBox.XMin || lm.X > frame.BBox.XMax || lm.Y < frame.BBox.YMin || lm.Y > frame.BBox.YMax {
				t.Errorf("landmark %d (%d,%d) outside box %+v", lm.ID, lm.X, lm.Y, *frame.BBox)
			}
		}
	})
}

func TestFrame(t *testing.T) {
	t.Run("empty frame is incomplete with no box", func(t *testing.T) {
		frame := NewFrame(nil)
		if frame.Complete() {
			t.Error("empty frame reported complete")
		}
		if frame.BBox != nil {
			t.Error("empty frame has a bounding box")
		}
		if _, _, ok := frame.Point(IndexTip); ok {
			t.Error("Point returned ok for missing landmark")
		}
	})

	t.Run("partial frame is incomplete", func(t *testing.T) {
		frame := NewFrame(make([]Landmark, 12))
		if frame.Complete() {
			t.Error("12-landmark frame reported complete")
		}
	})

	t.Run("box center", func(t *testing.T) {
		box := BBox{XMin: 10, YMin: 20, XMax: 30, YMax: 60}
		x, y := box.Center()
		if x != 20 || y != 40 {
			t.Errorf("expected (20,40), got (%v,%v)", x, y)
		}
	})
}

func TestPrimary(t *testing.T) {
	if frame := Primary(nil, 640, 480); frame.Complete() {
		t.Error("expected empty frame for no hands")
	}

	first := PointingLandmarks()
	second := OpenPalmLandmarks()
	frame := Primary([]HandLandmarks{first, second}, 640, 480)
	if diff := cmp.Diff(first.ToFrame(640, 480), frame); diff != "" {
		t.Errorf("Primary did not pick hand 0 (-want +got):\n%s", diff)
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		want := errors.New("boom")
		mock.SetError(want)

		_, err := mock.Detect(nil)
		if !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
	})

	t.Run("drains queue before falling back", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{OpenPalmLandmarks()})
		mock.Queue([]HandLandmarks{PointingLandmarks()}, nil)

		first, _ := mock.Detect(nil)
		second, _ := mock.Detect(nil)
		third, _ := mock.Detect(nil)

		if len(first) != 1 || first[0] != PointingLandmarks() {
			t.Errorf("first call: expected pointing hand, got %v", first)
		}
		if second != nil {
			t.Errorf("second call: expected no hands, got %v", second)
		}
		if len(third) != 1 || third[0] != OpenPalmLandmarks() {
			t.Errorf("third call: expected open palm, got %v", third)
		}
		if mock.Calls() != 3 {
			t.Errorf("expected 3 calls, got %d", mock.Calls())
		}
	})
}

func TestDecodeResponse(t *testing.T) {
	t.Run("drops incomplete hands", func(t *testing.T) {
		hands, err := decodeResponse([]byte(`{"hands":[{"points":[{"x":0.1,"y":0.2,"z":0}],"handedness":"Left","score":0.9}]}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected incomplete hand to be dropped, got %d hands", len(hands))
		}
	})

	t.Run("decodes full hand", func(t *testing.T) {
		points := `[`
		for i := 0; i < NumLandmarks; i++ {
			if i > 0 {
				points += ","
			}
			points += `{"x":0.5,"y":0.5,"z":0.1}`
		}
		points += `]`

		hands, err := decodeResponse([]byte(`{"hands":[{"points":` + points + `,"handedness":"Right","score":0.8}]}` + "\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if hands[0].Handedness != "Right" || hands[0].Score != 0.8 {
			t.Errorf("unexpected metadata: %+v", hands[0])
		}
		if hands[0].Points[PinkyTip].Z != 0.1 {
			t.Errorf("expected last point to be decoded, got %+v", hands[0].Points[PinkyTip])
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		if _, err := decodeResponse([]byte("not json")); err == nil {
			t.Error("expected error for malformed response")
		}
	})
}

func TestServiceArgs(t *testing.T) {
	args := serviceArgs(Config{MaxHands: 1, MinConfidence: 0.5, MinTrackingConf: 0.75})

	want := []string{
		"--max-hands", "1",
		"--min-detection-confidence", "0.5",
		"--min-tracking-confidence", "0.75",
	}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("serviceArgs() mismatch (-want +got):\n%s", diff)
	}

	script, err := os.ReadFile("../../scripts/mediapipe_service.py")
	if err != nil {
		t.Fatalf("read service script: %v", err)
	}
	for _, arg := range args {
		if strings.HasPrefix(arg, "--") && !strings.Contains(string(script), `"`+arg+`"`) {
			t.Errorf("service script does not accept %s", arg)
		}
	}
}
