package exercise

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/meltforce/formcoach/internal/pose"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func curlFrame(elbowDeg, hipX float64) pose.Frame {
	shoulder := pose.Point{X: 0.5, Y: 0.3}
	elbow := pose.Point{X: 0.5, Y: 0.5}
	wrist := pose.PointAt(elbow, shoulder, elbowDeg, 0.2)
	return pose.Frame{
		pose.LeftShoulder: {X: shoulder.X, Y: shoulder.Y, Visibility: 1},
		pose.LeftElbow:    {X: elbow.X, Y: elbow.Y, Visibility: 1},
		pose.LeftWrist:    {X: wrist.X, Y: wrist.Y, Visibility: 1},
		pose.LeftHip:      {X: hipX, Y: 0.7, Visibility: 1},
	}
}

func squatFrame(kneeDeg, hipDeg float64) pose.Frame {
	hip := pose.Point{X: 0.5, Y: 0.5}
	knee := pose.Point{X: 0.5, Y: 0.7}
	ankle := pose.PointAt(knee, hip, kneeDeg, 0.2)
	shoulder := pose.PointAt(hip, knee, hipDeg, 0.25)
	return pose.Frame{
		pose.LeftShoulder: {X: shoulder.X, Y: shoulder.Y, Visibility: 1},
		pose.LeftHip:      {X: hip.X, Y: hip.Y, Visibility: 1},
		pose.LeftKnee:     {X: knee.X, Y: knee.Y, Visibility: 1},
		pose.LeftAnkle:    {X: ankle.X, Y: ankle.Y, Visibility: 1},
	}
}

func pushUpFrame(elbowDeg, shoulderDeg float64) pose.Frame {
	shoulder := pose.Point{X: 0.3, Y: 0.5}
	elbow := pose.Point{X: 0.3, Y: 0.7}
	wrist := pose.PointAt(elbow, shoulder, elbowDeg, 0.2)
	hip := pose.PointAt(shoulder, elbow, shoulderDeg, 0.3)
	return pose.Frame{
		pose.LeftShoulder: {X: shoulder.X, Y: shoulder.Y, Visibility: 1},
		pose.LeftElbow:    {X: elbow.X, Y: elbow.Y, Visibility: 1},
		pose.LeftWrist:    {X: wrist.X, Y: wrist.Y, Visibility: 1},
		pose.LeftHip:      {X: hip.X, Y: hip.Y, Visibility: 1},
	}
}

func lungeFrame(kneeDeg float64) pose.Frame {
	hip := pose.Point{X: 0.5, Y: 0.5}
	knee := pose.Point{X: 0.5, Y: 0.7}
	ankle := pose.PointAt(knee, hip, kneeDeg, 0.2)
	return pose.Frame{
		pose.RightHip:   {X: hip.X, Y: hip.Y, Visibility: 1},
		pose.RightKnee:  {X: knee.X, Y: knee.Y, Visibility: 1},
		pose.RightAnkle: {X: ankle.X, Y: ankle.Y, Visibility: 1},
	}
}

func plankFrame(bodyLineDeg float64) pose.Frame {
	shoulder := pose.Point{X: 0.2, Y: 0.5}
	hip := pose.Point{X: 0.5, Y: 0.5}
	knee := pose.PointAt(hip, shoulder, bodyLineDeg, 0.25)
	return pose.Frame{
		pose.LeftShoulder: {X: shoulder.X, Y: shoulder.Y, Visibility: 1},
		pose.LeftHip:      {X: hip.X, Y: hip.Y, Visibility: 1},
		pose.LeftKnee:     {X: knee.X, Y: knee.Y, Visibility: 1},
	}
}

// run feeds frames to ex starting from its default stage and checks the
// counter invariants after every frame.
func run(t *testing.T, ex Exercise, frames ...pose.Frame) Progress {
	t.Helper()
	p := Progress{Stage: ex.DefaultStage(), StartTime: t0}
	for i, f := range frames {
		before := p.Counter
		if err := ex.Update(Input{Frame: f, Now: t0}, &p); err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
		if p.Counter < before {
			t.Fatalf("frame %d: counter decreased from %d to %d", i, before, p.Counter)
		}
		if p.GoodReps > p.Counter {
			t.Fatalf("frame %d: good_reps %d > counter %d", i, p.GoodReps, p.Counter)
		}
	}
	return p
}

// TestBicepCurlGoodRep verifies that 170 -> 20 -> 170 counts one good rep
// when the torso stays still and the elbow stays tucked.
func TestBicepCurlGoodRep(t *testing.T) {
	p := run(t, BicepCurl{}, curlFrame(170, 0.5), curlFrame(20, 0.5), curlFrame(170, 0.5))
	if p.Counter != 1 || p.GoodReps != 1 {
		t.Errorf("counter/good = %d/%d, want 1/1", p.Counter, p.GoodReps)
	}
	if p.Stage != StageDown {
		t.Errorf("stage = %q, want %q", p.Stage, StageDown)
	}
}

// TestBicepCurlSwinging verifies that a rep with the shoulder drifting away
// from the hip is counted but not credited. Feedback on the contracting frame
// is judged against the stage the frame started in.
func TestBicepCurlSwinging(t *testing.T) {
	p := run(t, BicepCurl{}, curlFrame(170, 0.5), curlFrame(20, 0.65))
	if p.Counter != 1 || p.GoodReps != 0 {
		t.Errorf("counter/good = %d/%d, want 1/0", p.Counter, p.GoodReps)
	}
	want := []string{"Lower your arm completely!", "Avoid swinging your body."}
	if diff := cmp.Diff(want, p.Feedback); diff != "" {
		t.Errorf("feedback mismatch (-want +got):\n%s", diff)
	}
}

// TestBicepCurlNoDoubleCount verifies that staying contracted over several
// frames counts once, and a second rep requires full extension first.
func TestBicepCurlNoDoubleCount(t *testing.T) {
	p := run(t, BicepCurl{},
		curlFrame(170, 0.5), curlFrame(20, 0.5), curlFrame(25, 0.5), curlFrame(20, 0.5),
		curlFrame(120, 0.5), curlFrame(20, 0.5),
		curlFrame(165, 0.5), curlFrame(28, 0.5),
	)
	if p.Counter != 2 {
		t.Errorf("counter = %d, want 2", p.Counter)
	}
}

// TestBicepCurlFeedback verifies the stage-dependent range-of-motion cues.
func TestBicepCurlFeedback(t *testing.T) {
	tests := []struct {
		name  string
		stage Stage
		elbow float64
		want  []string
	}{
		{"half contraction", StageUp, 90, []string{"Lift higher for a full contraction!"}},
		{"half extension", StageDown, 100, []string{"Lower your arm completely!"}},
		{"full extension", StageDown, 170, []string{GoodForm}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Progress{Stage: tt.stage}
			if err := (BicepCurl{}).Update(Input{Frame: curlFrame(tt.elbow, 0.5)}, &p); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, p.Feedback); diff != "" {
				t.Errorf("feedback mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestBicepCurlElbowFlare verifies the tucked-elbow rule.
func TestBicepCurlElbowFlare(t *testing.T) {
	f := curlFrame(170, 0.5)
	elbow := f[pose.LeftElbow]
	elbow.X += 0.1
	f[pose.LeftElbow] = elbow
	got := curlForm(curlAngles{Elbow: 170, Shoulder: f[pose.LeftShoulder].Point(), ElbowPos: elbow.Point(), Hip: f[pose.LeftHip].Point()}, StageDown)
	if diff := cmp.Diff([]string{"Keep elbows tucked in."}, got); diff != "" {
		t.Errorf("feedback mismatch (-want +got):\n%s", diff)
	}
}

// TestSquatGoodRep verifies that knee 170 -> 90 -> 170 counts one rep, credited
// when the hip angle stays at or above 80.
func TestSquatGoodRep(t *testing.T) {
	p := run(t, Squat{}, squatFrame(170, 170), squatFrame(90, 85), squatFrame(170, 170))
	if p.Counter != 1 || p.GoodReps != 1 {
		t.Errorf("counter/good = %d/%d, want 1/1", p.Counter, p.GoodReps)
	}
	if p.Stage != StageUp {
		t.Errorf("stage = %q, want %q", p.Stage, StageUp)
	}
}

// TestSquatLeaningForward verifies that a collapsed hip angle at the bottom
// counts the rep without crediting it.
func TestSquatLeaningForward(t *testing.T) {
	p := run(t, Squat{}, squatFrame(170, 170), squatFrame(90, 70))
	if p.Counter != 1 || p.GoodReps != 0 {
		t.Errorf("counter/good = %d/%d, want 1/0", p.Counter, p.GoodReps)
	}
	if diff := cmp.Diff([]string{"Keep your chest up and back straight."}, p.Feedback); diff != "" {
		t.Errorf("feedback mismatch (-want +got):\n%s", diff)
	}
}

// TestSquatShallow verifies that the depth cue is shown while in the down stage.
func TestSquatShallow(t *testing.T) {
	p := Progress{Stage: StageDown}
	if err := (Squat{}).Update(Input{Frame: squatFrame(130, 150)}, &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"Squat deeper for full range of motion."}, p.Feedback); diff != "" {
		t.Errorf("feedback mismatch (-want +got):\n%s", diff)
	}
	if p.Counter != 0 {
		t.Errorf("counter = %d, want 0", p.Counter)
	}
}

// TestPushUp verifies counting and the straight-body credit rule.
func TestPushUp(t *testing.T) {
	good := run(t, PushUp{}, pushUpFrame(170, 175), pushUpFrame(80, 170), pushUpFrame(170, 175))
	if good.Counter != 1 || good.GoodReps != 1 {
		t.Errorf("straight: counter/good = %d/%d, want 1/1", good.Counter, good.GoodReps)
	}

	sagging := run(t, PushUp{}, pushUpFrame(170, 175), pushUpFrame(80, 150))
	if sagging.Counter != 1 || sagging.GoodReps != 0 {
		t.Errorf("sagging: counter/good = %d/%d, want 1/0", sagging.Counter, sagging.GoodReps)
	}
	if diff := cmp.Diff([]string{"Keep your body straight."}, sagging.Feedback); diff != "" {
		t.Errorf("feedback mismatch (-want +got):\n%s", diff)
	}
}

// TestPushUpShallow verifies the depth cue in the down stage.
func TestPushUpShallow(t *testing.T) {
	p := Progress{Stage: StageDown}
	if err := (PushUp{}).Update(Input{Frame: pushUpFrame(140, 175)}, &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"Lower yourself more for full range."}, p.Feedback); diff != "" {
		t.Errorf("feedback mismatch (-want +got):\n%s", diff)
	}
}

// TestLungeAlwaysCredits verifies that every counted lunge is good.
func TestLungeAlwaysCredits(t *testing.T) {
	p := run(t, Lunge{},
		lungeFrame(170), lungeFrame(110), lungeFrame(170), lungeFrame(100), lungeFrame(150),
	)
	if p.Counter != 2 || p.GoodReps != 2 {
		t.Errorf("counter/good = %d/%d, want 2/2", p.Counter, p.GoodReps)
	}
	if diff := cmp.Diff([]string{GoodForm}, p.Feedback); diff != "" {
		t.Errorf("feedback mismatch (-want +got):\n%s", diff)
	}
}

// TestPlankHold verifies that three seconds of straight frames yield a
// three-second hold, all credited.
func TestPlankHold(t *testing.T) {
	p := Progress{Stage: StageReady, StartTime: t0}
	for i := 0; i <= 30; i++ {
		now := t0.Add(time.Duration(i) * 100 * time.Millisecond)
		if err := (Plank{}).Update(Input{Frame: plankFrame(175), Now: now}, &p); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if p.GoodReps > p.Counter {
			t.Fatalf("frame %d: good %d > counter %d", i, p.GoodReps, p.Counter)
		}
	}
	if p.Counter != 3 || p.GoodReps != 3 {
		t.Errorf("counter/good = %d/%d, want 3/3", p.Counter, p.GoodReps)
	}
	if p.Stage != "Hold: 3s" {
		t.Errorf("stage = %q, want %q", p.Stage, "Hold: 3s")
	}
	if diff := cmp.Diff([]string{"Good form! Keep holding!"}, p.Feedback); diff != "" {
		t.Errorf("feedback mismatch (-want +got):\n%s", diff)
	}
}

// TestPlankSaggingNotCredited verifies that seconds held with a bent body
// count toward time but not toward good form, and credit resumes at the
// next whole second once the body straightens.
func TestPlankSaggingNotCredited(t *testing.T) {
	p := Progress{Stage: StageReady, StartTime: t0}
	for i := 0; i <= 30; i++ {
		now := t0.Add(time.Duration(i) * 100 * time.Millisecond)
		angle := 140.0
		if i >= 20 {
			angle = 175
		}
		if err := (Plank{}).Update(Input{Frame: plankFrame(angle), Now: now}, &p); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if p.Counter != 3 {
		t.Errorf("counter = %d, want 3", p.Counter)
	}
	if p.GoodReps != 2 {
		t.Errorf("good = %d, want 2", p.GoodReps)
	}
}

// TestPlankStartsClockOnFirstFrame verifies that a missing start time is set
// from the first frame.
func TestPlankStartsClockOnFirstFrame(t *testing.T) {
	p := Progress{Stage: StageReady}
	if err := (Plank{}).Update(Input{Frame: plankFrame(175), Now: t0}, &p); err != nil {
		t.Fatal(err)
	}
	if !p.StartTime.Equal(t0) {
		t.Errorf("start time = %v, want %v", p.StartTime, t0)
	}
	if p.Stage != "Hold: 0s" {
		t.Errorf("stage = %q", p.Stage)
	}
}

// TestUpdateMissingLandmarkLeavesProgress verifies that a frame without the
// required joints fails and changes nothing.
func TestUpdateMissingLandmarkLeavesProgress(t *testing.T) {
	for _, ex := range All() {
		t.Run(ex.ID(), func(t *testing.T) {
			p := Progress{Counter: 4, GoodReps: 3, Stage: ex.DefaultStage(), Feedback: []string{GoodForm}, StartTime: t0}
			before := p
			err := ex.Update(Input{Frame: pose.Frame{pose.Nose: {X: 0.5, Y: 0.1}}, Now: t0.Add(5 * time.Second)}, &p)
			if !errors.Is(err, pose.ErrMissingLandmark) {
				t.Fatalf("err = %v, want ErrMissingLandmark", err)
			}
			if diff := cmp.Diff(before, p); diff != "" {
				t.Errorf("progress changed (-before +after):\n%s", diff)
			}
		})
	}
}

// TestUpdateDegenerateLeavesProgress verifies that coincident joints are
// reported as a degenerate angle.
func TestUpdateDegenerateLeavesProgress(t *testing.T) {
	f := squatFrame(170, 170)
	f[pose.LeftAnkle] = f[pose.LeftKnee]
	p := Progress{Stage: StageUp, Counter: 2, GoodReps: 2}
	before := p
	if err := (Squat{}).Update(Input{Frame: f}, &p); !errors.Is(err, pose.ErrDegenerateAngle) {
		t.Fatalf("err = %v, want ErrDegenerateAngle", err)
	}
	if diff := cmp.Diff(before, p); diff != "" {
		t.Errorf("progress changed (-before +after):\n%s", diff)
	}
}

// TestLookup verifies canonical ids, aliases and rejection of unknown ids.
func TestLookup(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"bicep_curl", "bicep_curl", true},
		{"Squat", "squats", true},
		{"push-ups", "pushups", true},
		{"  lunge ", "lunges", true},
		{"plank", "plank", true},
		{"lateral_raises", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		ex, ok := Lookup(tt.in)
		if ok != tt.ok {
			t.Errorf("Lookup(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && ex.ID() != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.in, ex.ID(), tt.want)
		}
	}
}

// TestDefaultStages verifies the initial stage for each exercise.
func TestDefaultStages(t *testing.T) {
	for _, ex := range All() {
		want := StageDown
		if ex.TimeBased() {
			want = StageReady
		}
		if got := ex.DefaultStage(); got != want {
			t.Errorf("%s default stage = %q, want %q", ex.ID(), got, want)
		}
	}
}

// TestUnknownExercise verifies that the placeholder never advances.
func TestUnknownExercise(t *testing.T) {
	ex := Unknown("jumping_jacks")
	p := Progress{Stage: ex.DefaultStage()}
	if err := ex.Update(Input{Frame: squatFrame(170, 170)}, &p); !errors.Is(err, ErrUnknownExercise) {
		t.Errorf("err = %v, want ErrUnknownExercise", err)
	}
	if ex.ID() != "jumping_jacks" {
		t.Errorf("ID = %q", ex.ID())
	}
}

// TestCatalog verifies the catalog lists every exercise in display order.
func TestCatalog(t *testing.T) {
	want := []Info{
		{ID: "bicep_curl", Name: "Bicep Curls", DefaultStage: StageDown},
		{ID: "squats", Name: "Squats", DefaultStage: StageDown},
		{ID: "pushups", Name: "Push-ups", DefaultStage: StageDown},
		{ID: "lunges", Name: "Lunges", DefaultStage: StageDown},
		{ID: "plank", Name: "Plank", TimeBased: true, DefaultStage: StageReady},
	}
	if diff := cmp.Diff(want, Catalog()); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"bicep_curl", "squats", "pushups", "lunges", "plank"}, IDs()); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}
