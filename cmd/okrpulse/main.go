package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"okrpulse/internal/aggregate"
	"okrpulse/internal/completion"
	"okrpulse/internal/export"
	"okrpulse/internal/model"
	"okrpulse/internal/report"
	"okrpulse/internal/resolve"
	"okrpulse/internal/store"
	"okrpulse/internal/week"
	"okrpulse/internal/workspace"
)

const appName = "okrpulse"

const metricDecimals = 2

func main() {
	flag.String("workspace", "", "Path to workspace root")
	flag.String("actor", "", "Email of the acting user")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s: weekly OKR accountability\n\n", appName)
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [command] [flags]\n\n", appName)
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  init       Initialize a new workspace")
		fmt.Fprintln(os.Stderr, "  employee   Manage employee profiles")
		fmt.Fprintln(os.Stderr, "  okr        Manage objectives")
		fmt.Fprintln(os.Stderr, "  update     Submit and list weekly updates")
		fmt.Fprintln(os.Stderr, "  mgmt       Submit and list management reports")
		fmt.Fprintln(os.Stderr, "  dashboard  Show the week's submission summary")
		fmt.Fprintln(os.Stderr, "  metrics    Show resolved metrics for an objective")
		fmt.Fprintln(os.Stderr, "  report     Generate the weekly executive report")
		fmt.Fprintln(os.Stderr, "  export     Write all records to CSV")
		fmt.Fprintln(os.Stderr, "  help       Show this help")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}

	globals, remaining, err := extractGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := remaining
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		flag.Usage()
		return
	}

	run := func(fn func([]string, globalFlags) error) {
		if err := fn(args[1:], globals); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	switch args[0] {
	case "init":
		run(runInit)
	case "employee":
		run(runEmployee)
	case "okr":
		run(runOKR)
	case "update":
		run(runUpdate)
	case "mgmt":
		run(runMgmt)
	case "dashboard":
		run(runDashboard)
	case "metrics":
		run(runMetrics)
	case "report":
		run(runReport)
	case "export":
		run(runExport)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(1)
	}
}

type globalFlags struct {
	Workspace string
	Actor     string
}

func extractGlobalFlags(args []string) (globalFlags, []string, error) {
	var globals globalFlags
	remaining := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--workspace":
			if i+1 >= len(args) {
				return globalFlags{}, nil, fmt.Errorf("--workspace requires a value")
			}
			globals.Workspace = args[i+1]
			i++
		case strings.HasPrefix(arg, "--workspace="):
			globals.Workspace = strings.TrimPrefix(arg, "--workspace=")
		case arg == "--actor":
			if i+1 >= len(args) {
				return globalFlags{}, nil, fmt.Errorf("--actor requires a value")
			}
			globals.Actor = args[i+1]
			i++
		case strings.HasPrefix(arg, "--actor="):
			globals.Actor = strings.TrimPrefix(arg, "--actor=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return globals, remaining, nil
}

// session is the resolved workspace, config, and open database behind
// every data command.
type session struct {
	Workspace *workspace.Workspace
	Config    workspace.Config
	Store     *store.Store
}

func openSession(globals globalFlags) (*session, error) {
	if strings.TrimSpace(globals.Workspace) == "" {
		return nil, fmt.Errorf("--workspace is required")
	}
	ws, err := workspace.Resolve(globals.Workspace)
	if err != nil {
		return nil, err
	}
	cfg, err := ws.LoadConfig()
	if err != nil {
		return nil, err
	}
	dbPath, err := ws.DBPath(cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &session{Workspace: ws, Config: cfg, Store: st}, nil
}

func (s *session) Close() {
	if s != nil && s.Store != nil {
		_ = s.Store.Close()
	}
}

// identify resolves the --actor email against stored profiles.
func (s *session) identify(globals globalFlags) (model.Actor, model.Identity, error) {
	if strings.TrimSpace(globals.Actor) == "" {
		return model.Actor{}, model.Identity{}, fmt.Errorf("--actor is required")
	}
	return s.Store.Identify(globals.Actor)
}

// identifyAdmin is identify plus the admin gate on management views.
func (s *session) identifyAdmin(globals globalFlags) (model.Actor, model.Identity, error) {
	actor, id, err := s.identify(globals)
	if err != nil {
		return model.Actor{}, model.Identity{}, err
	}
	if !id.IsAdmin {
		return model.Actor{}, model.Identity{}, fmt.Errorf("%s: admin access required", actor.Email)
	}
	return actor, id, nil
}

func runInit(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(globals.Workspace) == "" {
		return fmt.Errorf("--workspace is required")
	}

	ws, err := workspace.Init(globals.Workspace)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Initialized workspace: %s\n", ws.Root)
	fmt.Fprintln(os.Stdout, "Next steps:")
	fmt.Fprintf(os.Stdout, "  %s employee add --workspace %s --name \"Your Name\" --email you@example.com --role admin\n", appName, ws.Root)
	fmt.Fprintf(os.Stdout, "  %s okr add --workspace %s --actor you@example.com ...\n", appName, ws.Root)
	return nil
}

func runEmployee(args []string, globals globalFlags) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		return fmt.Errorf("%s employee: missing subcommand (add, list)", appName)
	}

	switch args[0] {
	case "add":
		return runEmployeeAdd(args[1:], globals)
	case "list":
		return runEmployeeList(args[1:], globals)
	default:
		return fmt.Errorf("%s employee: unknown subcommand %q", appName, args[0])
	}
}

func runEmployeeAdd(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("employee add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "Full name")
	email := fs.String("email", "", "Email address")
	entity := fs.String("entity", "", "Entity or department")
	role := fs.String("role", "employee", "Role (employee or admin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	// The first profile bootstraps the workspace; after that only admins
	// may add employees.
	existing, err := sess.Store.ListActors()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		if _, _, err := sess.identifyAdmin(globals); err != nil {
			return err
		}
	}

	actor, err := sess.Store.AddActor(model.Actor{
		FullName: *name,
		Email:    *email,
		Entity:   *entity,
		Role:     model.Role(*role),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Added %s <%s> (%s)\n", actor.FullName, actor.Email, actor.Role)
	return nil
}

func runEmployeeList(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("employee list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	actors, err := sess.Store.ListActors()
	if err != nil {
		return err
	}
	if len(actors) == 0 {
		fmt.Fprintln(os.Stdout, "No employees yet.")
		return nil
	}
	for _, a := range actors {
		entity := a.Entity
		if entity == "" {
			entity = "-"
		}
		fmt.Fprintf(os.Stdout, "%-25s %-30s %-15s %s\n", a.FullName, a.Email, entity, a.Role)
	}
	return nil
}

func runOKR(args []string, globals globalFlags) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		return fmt.Errorf("%s okr: missing subcommand (add, list, archive)", appName)
	}

	switch args[0] {
	case "add":
		return runOKRAdd(args[1:], globals)
	case "list":
		return runOKRList(args[1:], globals)
	case "archive":
		return runOKRArchive(args[1:], globals)
	default:
		return fmt.Errorf("%s okr: unknown subcommand %q", appName, args[0])
	}
}

func runOKRAdd(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("okr add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	code := fs.String("code", "", "Short display code (default: generated)")
	title := fs.String("title", "", "Objective title")
	description := fs.String("description", "", "Objective description")
	owner := fs.String("owner", "", "Owner email (the DRI)")
	entity := fs.String("entity", "", "Entity or department")
	quarter := fs.String("quarter", "", "Quarter, e.g. Q3 2026")
	keyResults := fs.String("key-results", "", "Key results, separated by |")
	metricFlags := multiFlag{}
	fs.Var(&metricFlags, "metric", "Metric definition: \"Name;kind;goal\" or \"Name;kind;=formula\" (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()
	if _, _, err := sess.identifyAdmin(globals); err != nil {
		return err
	}

	if strings.TrimSpace(*owner) == "" {
		return fmt.Errorf("--owner is required")
	}
	dri, ok, err := sess.Store.ActorByEmail(*owner)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no profile found for owner %s", *owner)
	}

	metrics, err := parseMetricFlags(metricFlags)
	if err != nil {
		return err
	}

	o, err := sess.Store.AddObjective(model.Objective{
		Code:        *code,
		Title:       *title,
		Description: *description,
		OwnerID:     dri.ID,
		Entity:      *entity,
		Quarter:     *quarter,
		KeyResults:  splitList(*keyResults),
		Metrics:     metrics,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Added %s: %s (DRI: %s)\n", o.Code, o.Title, dri.FullName)
	return nil
}

func runOKRList(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("okr list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	all := fs.Bool("all", false, "Include archived objectives")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	objectives, err := sess.Store.ListObjectives(!*all)
	if err != nil {
		return err
	}
	if len(objectives) == 0 {
		fmt.Fprintln(os.Stdout, "No objectives yet.")
		return nil
	}

	actors, err := sess.Store.ListActors()
	if err != nil {
		return err
	}
	names := make(map[string]string, len(actors))
	for _, a := range actors {
		names[a.ID] = a.FullName
	}

	for _, o := range objectives {
		status := ""
		if !o.Active {
			status = " [archived]"
		}
		dri := names[o.OwnerID]
		if dri == "" {
			dri = aggregate.UnknownEntity
		}
		fmt.Fprintf(os.Stdout, "%-8s %s%s\n", o.Code, o.Title, status)
		fmt.Fprintf(os.Stdout, "         DRI: %s  Quarter: %s\n", dri, o.Quarter)
		for _, kr := range o.KeyResults {
			fmt.Fprintf(os.Stdout, "         - %s\n", kr)
		}
	}
	return nil
}

func runOKRArchive(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("okr archive", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	code := fs.String("code", "", "Objective code to archive")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" {
		return fmt.Errorf("--code is required")
	}

	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()
	if _, _, err := sess.identifyAdmin(globals); err != nil {
		return err
	}

	o, ok, err := sess.Store.ObjectiveByCode(*code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no objective with code %s", *code)
	}
	if err := sess.Store.ArchiveObjective(o.ID); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Archived %s: %s\n", o.Code, o.Title)
	return nil
}

func runUpdate(args []string, globals globalFlags) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		return fmt.Errorf("%s update: missing subcommand (submit, list)", appName)
	}

	switch args[0] {
	case "submit":
		return runUpdateSubmit(args[1:], globals)
	case "list":
		return runUpdateList(args[1:], globals)
	default:
		return fmt.Errorf("%s update: unknown subcommand %q", appName, args[0])
	}
}

func runUpdateSubmit(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("update submit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	code := fs.String("okr", "", "Objective code")
	narrative := fs.String("text", "", "Progress narrative")
	score := fs.Int("score", 0, "Progress score (1-5)")
	needsSupport := fs.Bool("needs-support", false, "Flag this update for leadership support")
	supportDetail := fs.String("support-detail", "", "What support is needed")
	values := multiFlag{}
	fs.Var(&values, "value", "Metric value: \"Name=raw\" (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" {
		return fmt.Errorf("--okr is required")
	}

	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()
	actor, _, err := sess.identify(globals)
	if err != nil {
		return err
	}

	o, ok, err := sess.Store.ObjectiveByCode(*code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no objective with code %s", *code)
	}

	metricValues := make(map[string]string, len(values))
	for _, pair := range values {
		name, raw, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("invalid --value %q (expected Name=raw)", pair)
		}
		metricValues[strings.TrimSpace(name)] = strings.TrimSpace(raw)
	}

	window := week.Of(time.Now())
	result, err := sess.Store.SubmitUpdate(model.PeriodUpdate{
		ObjectiveID:   o.ID,
		ActorID:       actor.ID,
		WeekStart:     window.StartMarker(),
		Narrative:     *narrative,
		Score:         *score,
		NeedsSupport:  *needsSupport,
		SupportDetail: *supportDetail,
		MetricValues:  metricValues,
	})
	if err != nil {
		return err
	}

	if result.Created {
		fmt.Fprintf(os.Stdout, "Submitted update for %s (%s)\n", o.Code, window.Label())
	} else {
		fmt.Fprintf(os.Stdout, "Replaced this week's update for %s (%s)\n", o.Code, window.Label())
		if result.Diff != "" {
			fmt.Fprint(os.Stdout, result.Diff)
		}
	}
	return nil
}

func runUpdateList(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("update list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	window := week.Of(time.Now())
	updates, err := sess.Store.UpdatesForWeek(window.StartMarker(), window.EndMarker())
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		fmt.Fprintf(os.Stdout, "No updates yet for %s.\n", window.Label())
		return nil
	}

	objectives, err := sess.Store.ListObjectives(false)
	if err != nil {
		return err
	}
	byID := make(map[string]model.Objective, len(objectives))
	for _, o := range objectives {
		byID[o.ID] = o
	}

	fmt.Fprintf(os.Stdout, "%s\n\n", window.Label())
	for _, u := range updates {
		o := byID[u.ObjectiveID]
		fmt.Fprintf(os.Stdout, "%-8s %d/5 (%s)", o.Code, u.Score, model.ScoreLabel(u.Score))
		if u.NeedsSupport {
			fmt.Fprint(os.Stdout, "  [needs support]")
		}
		fmt.Fprintln(os.Stdout)
		fmt.Fprintf(os.Stdout, "         %s\n", u.Narrative)
	}
	return nil
}

func runMgmt(args []string, globals globalFlags) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		return fmt.Errorf("%s mgmt: missing subcommand (submit, list)", appName)
	}

	switch args[0] {
	case "submit":
		return runMgmtSubmit(args[1:], globals)
	case "list":
		return runMgmtList(args[1:], globals)
	default:
		return fmt.Errorf("%s mgmt: unknown subcommand %q", appName, args[0])
	}
}

func runMgmtSubmit(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("mgmt submit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	text := fs.String("text", "", "Report text")
	attachment := fs.String("attachment", "", "Optional attachment link")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()
	actor, _, err := sess.identify(globals)
	if err != nil {
		return err
	}

	window := week.Of(time.Now())
	_, err = sess.Store.SubmitManagementReport(model.ManagementReport{
		ActorID:    actor.ID,
		WeekStart:  window.StartMarker(),
		Narrative:  *text,
		Attachment: *attachment,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Submitted management report for %s\n", window.Label())
	return nil
}

func runMgmtList(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("mgmt list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()
	if _, _, err := sess.identifyAdmin(globals); err != nil {
		return err
	}

	reports, err := sess.Store.ListManagementReports()
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintln(os.Stdout, "No management reports yet.")
		return nil
	}

	actors, err := sess.Store.ListActors()
	if err != nil {
		return err
	}
	names := make(map[string]string, len(actors))
	for _, a := range actors {
		names[a.ID] = a.FullName
	}

	for _, r := range reports {
		name := names[r.ActorID]
		if name == "" {
			name = aggregate.UnknownEntity
		}
		fmt.Fprintf(os.Stdout, "%s  %s\n", r.WeekStart, name)
		fmt.Fprintf(os.Stdout, "  %s\n", r.Narrative)
		if r.Attachment != "" {
			fmt.Fprintf(os.Stdout, "  Attachment: %s\n", r.Attachment)
		}
	}
	return nil
}

func runDashboard(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()
	if _, _, err := sess.identifyAdmin(globals); err != nil {
		return err
	}

	actors, objectives, updates, window, err := weekSnapshot(sess)
	if err != nil {
		return err
	}
	summary := aggregate.Summarize(actors, objectives, updates)

	fmt.Fprintf(os.Stdout, "%s\n\n", window.Label())
	fmt.Fprintf(os.Stdout, "Active OKRs:     %d\n", summary.ActiveObjectives)
	fmt.Fprintf(os.Stdout, "Submitted:       %d (%d%%)\n", summary.Submitted, summary.SubmissionRate)
	fmt.Fprintf(os.Stdout, "Average score:   %s\n", summary.AvgScoreLabel())

	if len(summary.Groups) > 0 {
		fmt.Fprintln(os.Stdout, "\nBy entity:")
		for _, g := range summary.Groups {
			fmt.Fprintf(os.Stdout, "  %-20s %d/%d (%d%%)  avg %s\n",
				g.Entity, g.Submitted, g.Total, g.Rate(), g.AvgScoreLabel())
		}
	}

	if len(summary.Missing) > 0 {
		fmt.Fprintf(os.Stdout, "\nMissing submissions (%d OKRs):\n", summary.MissingCount())
		for _, m := range summary.Missing {
			titles := make([]string, 0, len(m.Objectives))
			for _, o := range m.Objectives {
				titles = append(titles, o.Title)
			}
			fmt.Fprintf(os.Stdout, "  %s: %s\n", m.Actor.FullName, strings.Join(titles, ", "))
		}
	}

	if len(summary.NeedsSupport) > 0 {
		fmt.Fprintln(os.Stdout, "\nNeeds support:")
		for _, sf := range summary.NeedsSupport {
			fmt.Fprintf(os.Stdout, "  %s (%s): %s\n", sf.ActorName, sf.Objective.Title, sf.Update.SupportDetail)
		}
	}
	return nil
}

func runMetrics(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("metrics", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	code := fs.String("okr", "", "Objective code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" {
		return fmt.Errorf("--okr is required")
	}

	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()
	if _, _, err := sess.identifyAdmin(globals); err != nil {
		return err
	}

	o, ok, err := sess.Store.ObjectiveByCode(*code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no objective with code %s", *code)
	}
	if len(o.Metrics) == 0 {
		fmt.Fprintf(os.Stdout, "%s has no metrics defined.\n", o.Code)
		return nil
	}

	window := week.Of(time.Now())
	var raw map[string]string
	update, err := sess.Store.UpdateFor(o.ID, window.StartMarker())
	if err != nil {
		return err
	}
	if update != nil {
		raw = update.MetricValues
	}

	fmt.Fprintf(os.Stdout, "%s: %s (%s)\n\n", o.Code, o.Title, window.Label())
	for _, m := range resolve.Metrics(o.Metrics, raw, metricDecimals) {
		line := fmt.Sprintf("  %-25s %s", m.Name, metricDisplay(m, raw))
		if m.Attainment != nil {
			line += fmt.Sprintf("  (%.0f%% of goal)", *m.Attainment)
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}

// metricDisplay renders one metric's value cell: the resolved number when
// present, otherwise non-numeric raw text as reported, otherwise the goal
// annotated as a fallback.
func metricDisplay(m resolve.Metric, raw map[string]string) string {
	if m.Value != nil {
		return resolve.Format(m.Kind, m.Value, metricDecimals)
	}
	if text := strings.TrimSpace(raw[m.Name]); text != "" {
		return resolve.FormatRaw(m.Kind, text, metricDecimals)
	}
	if m.GoalFallback {
		return resolve.Format(m.Kind, m.Goal, metricDecimals) + " (goal)"
	}
	return resolve.Missing
}

func runReport(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()
	if _, _, err := sess.identifyAdmin(globals); err != nil {
		return err
	}

	apiKey := os.Getenv(sess.Config.APIKeyEnv)
	if apiKey == "" {
		return fmt.Errorf("completion API key is not set (expected in $%s)", sess.Config.APIKeyEnv)
	}

	actors, objectives, updates, window, err := weekSnapshot(sess)
	if err != nil {
		return err
	}

	submitted := reportUpdates(actors, objectives, updates)
	missing := reportMissing(actors, objectives, updates)
	fmt.Fprintf(os.Stdout, "%s\n%s\n\n", window.Label(), reportCountsLine(submitted, missing))

	prompt := report.BuildContext(window.Label(), submitted, missing)

	client := completion.NewClient(apiKey)
	client.Model = sess.Config.CompletionModel
	text, err := client.Complete(context.Background(), prompt)
	if err != nil {
		// Surfaced as-is; rerunning the command retries.
		return err
	}

	fmt.Fprint(os.Stdout, report.Render(text))
	return nil
}

func runExport(args []string, globals globalFlags) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	outDir := fs.String("out", "", "Output directory (default: <workspace>/exports)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()
	if _, _, err := sess.identifyAdmin(globals); err != nil {
		return err
	}

	dir := sess.Workspace.ExportsDir
	if *outDir != "" {
		dir, err = sess.Workspace.ResolvePath(*outDir)
		if err != nil {
			return fmt.Errorf("resolve --out: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure export dir: %w", err)
	}

	actors, err := sess.Store.ListActors()
	if err != nil {
		return err
	}
	objectives, err := sess.Store.ListObjectives(false)
	if err != nil {
		return err
	}
	updates, err := sess.Store.ListUpdates()
	if err != nil {
		return err
	}
	reports, err := sess.Store.ListManagementReports()
	if err != nil {
		return err
	}

	tables := []export.Table{
		export.Employees(actors),
		export.Objectives(objectives, actors),
		export.Updates(updates, objectives, actors),
		export.ManagementReports(reports, actors),
	}
	for _, t := range tables {
		name := strings.ToLower(strings.ReplaceAll(t.Name, " ", "_")) + ".csv"
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := export.WriteCSV(f, t); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
		fmt.Fprintf(os.Stdout, "Wrote %s (%d rows)\n", path, len(t.Rows))
	}
	return nil
}

// weekSnapshot loads the immutable inputs for the current reporting week.
func weekSnapshot(sess *session) ([]model.Actor, []model.Objective, []model.PeriodUpdate, week.Window, error) {
	window := week.Of(time.Now())
	actors, err := sess.Store.ListActors()
	if err != nil {
		return nil, nil, nil, window, err
	}
	objectives, err := sess.Store.ListObjectives(true)
	if err != nil {
		return nil, nil, nil, window, err
	}
	updates, err := sess.Store.UpdatesForWeek(window.StartMarker(), window.EndMarker())
	if err != nil {
		return nil, nil, nil, window, err
	}
	return actors, objectives, updates, window, nil
}

func reportUpdates(actors []model.Actor, objectives []model.Objective, updates []model.PeriodUpdate) []report.UpdateContext {
	names := make(map[string]model.Actor, len(actors))
	for _, a := range actors {
		names[a.ID] = a
	}
	byID := make(map[string]model.Objective, len(objectives))
	for _, o := range objectives {
		byID[o.ID] = o
	}

	out := make([]report.UpdateContext, 0, len(updates))
	for _, u := range updates {
		o, ok := byID[u.ObjectiveID]
		if !ok {
			continue
		}
		ctx := report.UpdateContext{
			ActorName:   aggregate.UnknownEntity,
			Entity:      aggregate.UnknownEntity,
			Objective:   o.Title,
			Description: o.Description,
			KeyResults:  o.KeyResults,
			Quarter:     o.Quarter,
			Score:       u.Score,
			Narrative:   u.Narrative,
		}
		if owner, ok := names[o.OwnerID]; ok {
			ctx.ActorName = owner.FullName
			if owner.Entity != "" {
				ctx.Entity = owner.Entity
			}
		}
		out = append(out, ctx)
	}
	return out
}

// reportCountsLine renders the summary tiles shown above the generated
// report text.
func reportCountsLine(submitted []report.UpdateContext, missing []report.MissingContext) string {
	counts := report.CountsFor(submitted, missing)
	return fmt.Sprintf("Submitted: %d   Missing: %d   Average score: %s",
		counts.Submitted, counts.Missing, counts.AvgScoreLabel())
}

func reportMissing(actors []model.Actor, objectives []model.Objective, updates []model.PeriodUpdate) []report.MissingContext {
	summary := aggregate.Summarize(actors, objectives, updates)
	var out []report.MissingContext
	for _, m := range summary.Missing {
		for _, o := range m.Objectives {
			entity := m.Actor.Entity
			if entity == "" {
				entity = aggregate.UnknownEntity
			}
			out = append(out, report.MissingContext{
				Objective: o.Title,
				ActorName: m.Actor.FullName,
				Entity:    entity,
			})
		}
	}
	return out
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ", ")
}

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

func splitList(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseMetricFlags decodes repeatable --metric values of the form
// "Name;kind;goal" (manual) or "Name;kind;=formula" (computed). The goal
// part is optional for manual metrics.
func parseMetricFlags(flags []string) ([]model.MetricDef, error) {
	defs := make([]model.MetricDef, 0, len(flags))
	for _, raw := range flags {
		parts := strings.SplitN(raw, ";", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid --metric %q (expected Name;kind[;goal or ;=formula])", raw)
		}
		kind, err := model.ParseMetricKind(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid --metric %q: %w", raw, err)
		}
		def := model.MetricDef{Name: strings.TrimSpace(parts[0]), Kind: kind}

		tail := ""
		if len(parts) == 3 {
			tail = strings.TrimSpace(parts[2])
		}
		switch {
		case strings.HasPrefix(tail, "="):
			def.Computed = &model.ComputedMetric{Formula: strings.TrimSpace(strings.TrimPrefix(tail, "="))}
		case tail != "":
			goal, err := parseGoal(tail)
			if err != nil {
				return nil, fmt.Errorf("invalid --metric %q: %w", raw, err)
			}
			def.Manual = &model.ManualMetric{Goal: goal}
		default:
			def.Manual = &model.ManualMetric{}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func parseGoal(text string) (*float64, error) {
	goal, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("parse goal %q: %w", text, err)
	}
	return &goal, nil
}
