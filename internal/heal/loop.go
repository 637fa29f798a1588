package heal

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"remedy/internal/classify"
	"remedy/internal/config"
	"remedy/internal/correction"
	"remedy/internal/logging"
	"remedy/internal/patch"
	"remedy/internal/policy"
	"remedy/internal/research"
	"remedy/internal/runner"
)

// DefaultMaxAttempts bounds the loop when no configuration is supplied.
const DefaultMaxAttempts = 3

// Loop wires the gate, runner, classifier, strategist, and applier into
// the self-correcting execution cycle.
type Loop struct {
	gate       *policy.Gate
	runner     runner.Runner
	classifier *classify.Classifier
	strategist *correction.Strategist
	applier    *patch.Applier

	maxAttempts    int
	attemptTimeout time.Duration
	workingDir     string
}

// NewLoop builds a loop from configuration. The research client may be nil;
// the strategist then skips its consult step.
func NewLoop(cfg *config.Config, run runner.Runner, researchClient *research.Client) *Loop {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if run == nil {
		run = runner.NewDirectRunnerWithConfig(runner.ConfigFrom(cfg))
	}

	applier := patch.NewApplier()
	applier.SetWorkingDir(cfg.Execution.WorkingDirectory)
	applier.SetBackupSuffix(cfg.Healing.BackupSuffix)

	var rc *research.Client
	if cfg.Healing.ConsultResearch {
		rc = researchClient
		if rc == nil {
			rc = research.NewClient(&cfg.Research)
		}
	}

	maxAttempts := cfg.Healing.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Loop{
		gate:           policy.NewGate(cfg),
		runner:         run,
		classifier:     classify.NewClassifier(),
		strategist:     correction.NewStrategist(rc),
		applier:        applier,
		maxAttempts:    maxAttempts,
		attemptTimeout: cfg.Healing.GetAttemptTimeout(),
		workingDir:     cfg.Execution.WorkingDirectory,
	}
}

// SetApplier swaps the patch applier, used by tests to patch an in-memory
// filesystem.
func (l *Loop) SetApplier(a *patch.Applier) {
	if a != nil {
		l.applier = a
	}
}

// Run executes the healing loop for one request. The command is gated
// exactly once; a blocked command returns a rejected result with zero
// attempts. Otherwise the loop executes, and on failure classifies,
// corrects, patches, and retries until success or the attempt bound.
func (l *Loop) Run(ctx context.Context, req Request) (*LoopResult, error) {
	if strings.TrimSpace(req.CommandLine) == "" {
		return nil, fmt.Errorf("command line is required")
	}

	start := time.Now()
	invocationID := uuid.NewString()
	log := logging.WithRequestID(logging.CategoryHeal, invocationID)

	result := &LoopResult{InvocationID: invocationID}

	workingDir := req.WorkingDir
	if workingDir == "" {
		workingDir = l.workingDir
	}

	fields := strings.Fields(req.CommandLine)
	violations := l.gate.Validate(fields[0], fields[1:], workingDir)
	if blocking := policy.Blocking(violations); blocking != nil {
		log.Warn("Command blocked by policy rule %s: %s", blocking.Rule, req.CommandLine)
		result.Rejected = true
		result.RejectionRule = blocking.Rule
		result.RejectionMessage = fmt.Sprintf("command blocked by policy rule %s: %s", blocking.Rule, blocking.Message)
		result.Duration = time.Since(start)
		return result, nil
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = l.maxAttempts
	}
	attemptTimeout := req.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = l.attemptTimeout
	}

	log.Info("Healing loop started: %q (max %d attempts)", req.CommandLine, maxAttempts)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		record := AttemptRecord{Number: attempt}

		cmd := runner.Shell(req.CommandLine)
		cmd.WorkingDirectory = workingDir
		cmd.RequestID = fmt.Sprintf("%s-%d", invocationID, attempt)
		cmd.Limits = &runner.Limits{TimeoutMs: attemptTimeout.Milliseconds()}

		execResult, err := l.runner.Execute(ctx, cmd)
		if err != nil && execResult == nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("attempt %d failed to execute: %w", attempt, err)
		}
		record.Result = execResult

		if !execResult.Failed() {
			log.Info("Attempt %d succeeded", attempt)
			result.Attempts = append(result.Attempts, record)
			result.Success = true
			result.FinalOutput = execResult.Output()
			result.Duration = time.Since(start)
			return result, nil
		}

		errText := errorText(execResult)
		analysis := l.classifier.Analyze(errText)
		record.Analysis = &analysis
		log.Warn("Attempt %d failed (%s): %s", attempt, analysis.Category, analysis.RootCause)

		// No correction after the final attempt; the loop is done.
		if attempt < maxAttempts {
			l.correct(ctx, req, errText, analysis, &record, log)
		}

		result.Attempts = append(result.Attempts, record)
		result.FinalOutput = execResult.Output()
	}

	log.Warn("Healing loop exhausted after %d attempts", len(result.Attempts))
	result.Duration = time.Since(start)
	return result, nil
}

// correct runs the classify-propose-patch step between attempts. Failure
// to correct is not fatal: the loop retries regardless, and the record
// shows what was tried.
func (l *Loop) correct(ctx context.Context, req Request, errText string, analysis classify.Analysis, record *AttemptRecord, log *logging.RequestLogger) {
	targetFile := req.TargetFile
	if targetFile == "" {
		targetFile = l.findTargetFile(req.CommandLine, errText)
	}
	if targetFile == "" {
		log.Debug("No correction target identified, retrying as-is")
		return
	}

	content, err := l.applier.ReadTarget(targetFile)
	if err != nil {
		log.Debug("Correction target unreadable: %s - %v", targetFile, err)
		return
	}

	proposal, err := l.strategist.Propose(ctx, correction.Input{
		Analysis:   analysis,
		TargetFile: targetFile,
		Content:    content,
		Line:       correction.LineFromError(errText, targetFile),
	})
	if err != nil {
		log.Debug("No correction proposed for %s: %v", targetFile, err)
		return
	}
	record.Proposal = proposal

	applied, err := l.applier.Apply(patch.Record{
		TargetFile:          targetFile,
		SearchFragment:      proposal.SearchFragment,
		ReplacementFragment: proposal.ReplacementFragment,
	})
	if err != nil {
		log.Warn("Patch failed for %s: %v", targetFile, err)
		return
	}
	record.Patch = applied
	if applied.Applied {
		log.Info("Applied %s correction to %s", proposal.Strategy, targetFile)
	} else {
		log.Debug("Correction fragment absent in %s, nothing patched", targetFile)
	}
}

var errorLocationPattern = regexp.MustCompile(`([\w./\\-]+\.[A-Za-z]{1,10}):\d+`)

var sourceExtensions = []string{
	".js", ".mjs", ".cjs", ".ts", ".tsx", ".jsx", ".py", ".go", ".rb",
	".sh", ".java", ".c", ".cc", ".cpp", ".rs", ".php", ".json", ".yaml", ".yml",
}

// findTargetFile infers the file a correction should target: first from
// file:line markers in the error output, then from command-line tokens
// that name an existing source file.
func (l *Loop) findTargetFile(commandLine, errText string) string {
	for _, m := range errorLocationPattern.FindAllStringSubmatch(errText, -1) {
		if l.applier.TargetExists(m[1]) {
			return m[1]
		}
	}
	for _, tok := range strings.Fields(commandLine) {
		if !hasSourceExtension(tok) {
			continue
		}
		if l.applier.TargetExists(tok) {
			return tok
		}
	}
	return ""
}

func hasSourceExtension(tok string) bool {
	lower := strings.ToLower(tok)
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// errorText picks the text the classifier should see: stderr when present,
// then the infrastructure error, then stdout.
func errorText(r *runner.Result) string {
	if r.Stderr != "" {
		return r.Stderr
	}
	if r.Error != "" {
		return r.Error
	}
	return r.Stdout
}
