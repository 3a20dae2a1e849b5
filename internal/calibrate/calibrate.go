// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package calibrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pdiddy/story-crew/internal/crew"
	"github.com/pdiddy/story-crew/pkg/types"
)

// ErrIterations is returned when fewer than one iteration is requested.
var ErrIterations = errors.New("iterations must be at least 1")

// Runner runs the pipeline once for an input record.
type Runner interface {
	Kickoff(ctx context.Context, inputs map[string]string) (*types.RunResult, error)
}

// TrainOptions configures Train.
type TrainOptions struct {
	Inputs       map[string]string
	TrainingData string
	Iterations   int

	// ExportPath receives every recorded example as JSON. Empty skips the export.
	ExportPath string
}

// Train runs the pipeline opts.Iterations times and records each task
// output alongside the training data. A failed iteration aborts training.
func Train(ctx context.Context, runner Runner, store *Store, opts TrainOptions) error {
	if opts.Iterations < 1 {
		return ErrIterations
	}
	for i := 1; i <= opts.Iterations; i++ {
		res, err := runner.Kickoff(ctx, opts.Inputs)
		if err != nil {
			return fmt.Errorf("training iteration %d: %w", i, err)
		}
		for _, t := range res.Tasks {
			ex := types.TrainingExample{
				Iteration:    i,
				RunID:        res.RunID,
				TaskID:       t.TaskID,
				Agent:        t.Agent,
				Output:       t.Raw,
				TrainingData: opts.TrainingData,
			}
			if err := store.AddTrainingExample(ctx, ex); err != nil {
				return err
			}
		}
	}
	if opts.ExportPath == "" {
		return nil
	}
	return store.ExportTraining(ctx, opts.ExportPath)
}

// Evaluator scores one task output on a 1 to 10 scale.
type Evaluator interface {
	Score(ctx context.Context, task types.TaskOutput) (float64, error)
}

// TestOptions configures Test.
type TestOptions struct {
	Inputs     map[string]string
	Iterations int
}

// Report holds per-task scores from a Test call. Tasks keeps pipeline order.
type Report struct {
	Tasks  []string
	Scores map[string][]float64
}

// Average returns the mean score of taskID, or 0 if it has none.
func (r *Report) Average(taskID string) float64 {
	s := r.Scores[taskID]
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

// Overall returns the mean of the per-task averages.
func (r *Report) Overall() float64 {
	if len(r.Tasks) == 0 {
		return 0
	}
	var sum float64
	for _, t := range r.Tasks {
		sum += r.Average(t)
	}
	return sum / float64(len(r.Tasks))
}

// Render writes the report as a bordered table.
func (r *Report) Render(w io.Writer) error {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Task", "Runs", "Average")
	for _, t := range r.Tasks {
		tbl.Row(t, strconv.Itoa(len(r.Scores[t])), fmt.Sprintf("%.1f", r.Average(t)))
	}
	tbl.Row("Overall", "", fmt.Sprintf("%.1f", r.Overall()))
	_, err := fmt.Fprintln(w, tbl.String())
	return err
}

// RenderAverages writes the cumulative per-task averages recorded in the
// store, in the order of tasks. Tasks without recorded scores are skipped.
func RenderAverages(w io.Writer, tasks []string, avg map[string]float64) error {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Task", "All-time average")
	for _, t := range tasks {
		if v, ok := avg[t]; ok {
			tbl.Row(t, fmt.Sprintf("%.1f", v))
		}
	}
	_, err := fmt.Fprintln(w, tbl.String())
	return err
}

// Test runs the pipeline opts.Iterations times and scores every task output.
func Test(ctx context.Context, runner Runner, eval Evaluator, store *Store, opts TestOptions) (*Report, error) {
	if opts.Iterations < 1 {
		return nil, ErrIterations
	}
	report := &Report{Scores: make(map[string][]float64)}
	for i := 1; i <= opts.Iterations; i++ {
		res, err := runner.Kickoff(ctx, opts.Inputs)
		if err != nil {
			return nil, fmt.Errorf("test iteration %d: %w", i, err)
		}
		for _, t := range res.Tasks {
			score, err := eval.Score(ctx, t)
			if err != nil {
				return nil, fmt.Errorf("scoring %s: %w", t.TaskID, err)
			}
			if _, seen := report.Scores[t.TaskID]; !seen {
				report.Tasks = append(report.Tasks, t.TaskID)
			}
			report.Scores[t.TaskID] = append(report.Scores[t.TaskID], score)
			if err := store.AddScore(ctx, types.TaskScore{Iteration: i, RunID: res.RunID, TaskID: t.TaskID, Score: score}); err != nil {
				return nil, err
			}
		}
	}
	return report, nil
}

// Score patterns in order of preference: an explicit "Score: N" label, an
// "N/10" fraction, and finally the last integer in the reply.
var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)score\s*[:：]\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s*/\s*10\b`),
	regexp.MustCompile(`(\d+)`),
}

// ExecutorEvaluator asks an Executor to grade task outputs.
type ExecutorEvaluator struct {
	Executor crew.Executor
}

var evaluatorRole = types.Role{
	ID:        "quality_evaluator",
	Role:      "Quality Evaluator",
	Goal:      "Grade how well a task output fulfils its instructions",
	Backstory: "You review the work of a story-writing team and give strict, consistent scores.",
}

// Score asks the executor for a 1 to 10 grade in the form "Score: N" and
// parses it from the reply.
func (e ExecutorEvaluator) Score(ctx context.Context, task types.TaskOutput) (float64, error) {
	prompt := fmt.Sprintf(`Rate the following output of the task %q on a scale of 1 to 10, where 10 means it fully meets the instructions.

Instructions:
%s

Output:
%s

Reply with a single line of the form "Score: N".`, task.TaskID, task.Prompt, task.Raw)

	reply, err := e.Executor.Execute(ctx, crew.Request{
		Role:   evaluatorRole,
		Task:   types.Task{ID: "evaluate_" + task.TaskID},
		Prompt: prompt,
	})
	if err != nil {
		return 0, err
	}
	return parseScore(reply)
}

func parseScore(reply string) (float64, error) {
	var m string
	for _, re := range scorePatterns {
		if all := re.FindAllStringSubmatch(reply, -1); len(all) > 0 {
			m = all[len(all)-1][1]
			break
		}
	}
	if m == "" {
		return 0, fmt.Errorf("no score in evaluator reply %q", reply)
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("parsing score %q: %w", m, err)
	}
	if n < 1 || n > 10 {
		return 0, fmt.Errorf("score %d out of range [1,10]", n)
	}
	return float64(n), nil
}
