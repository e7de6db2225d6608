// Command galley is the CLI for the recipe markup toolchain.
// It parses, validates and scales recipe files, inspects the unit table,
// indexes collections, serves live previews and imports foreign formats.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	galley "github.com/FocuswithJustin/Galley"
	"github.com/FocuswithJustin/Galley/core/quantity"
	"github.com/FocuswithJustin/Galley/core/recipe"
	"github.com/FocuswithJustin/Galley/core/report"
	"github.com/FocuswithJustin/Galley/core/units"
	"github.com/FocuswithJustin/Galley/internal/bundle"
	"github.com/FocuswithJustin/Galley/internal/importer"
	"github.com/FocuswithJustin/Galley/internal/index"
	"github.com/FocuswithJustin/Galley/internal/logging"
	"github.com/FocuswithJustin/Galley/internal/server"
	"github.com/FocuswithJustin/Galley/internal/validation"
)

const version = "0.4.0"

// defaultIndexName is the index database filename placed inside a
// collection when no explicit path is given.
const defaultIndexName = ".galley-index.db"

// CLI defines the command-line interface for galley.
var CLI struct {
	// Global flags
	LogLevel  string `help:"Log level (debug, info, warn, error)" enum:"debug,info,warn,error" default:"info"`
	LogFormat string `help:"Log output format (text, json)" enum:"text,json" default:"text"`

	// Command groups (noun-first organization)
	Recipe  RecipeGroup `cmd:"" help:"Recipe file operations (parse, validate, scale)"`
	Units   UnitsGroup  `cmd:"" help:"Unit table operations (list, convert)"`
	Index   IndexGroup  `cmd:"" help:"Collection index operations (build, lookup)"`
	Serve   ServeCmd    `cmd:"" help:"Serve a collection with live preview"`
	Import  ImportGroup `cmd:"" help:"Import recipes from foreign formats"`
	Bundle  BundleGroup `cmd:"" help:"Collection bundle operations (create, extract)"`
	Version VersionCmd  `cmd:"" help:"Print version information"`
}

// RecipeGroup contains single-file recipe operations.
type RecipeGroup struct {
	Parse    ParseCmd    `cmd:"" help:"Parse a recipe file and print the model"`
	Validate ValidateCmd `cmd:"" help:"Check recipe files and report diagnostics"`
	Scale    ScaleCmd    `cmd:"" help:"Scale a recipe and print the result"`
}

// UnitsGroup contains unit table operations.
type UnitsGroup struct {
	List    UnitsListCmd    `cmd:"" help:"List the known units"`
	Convert UnitsConvertCmd `cmd:"" help:"Convert a quantity between units"`
}

// IndexGroup contains collection index operations.
type IndexGroup struct {
	Build  IndexBuildCmd  `cmd:"" help:"Scan a collection directory into the index"`
	Lookup IndexLookupCmd `cmd:"" help:"Look up indexed recipes by name"`
}

// ImportGroup contains foreign-format conversions.
type ImportGroup struct {
	Recipeml ImportRecipeMLCmd `cmd:"" name:"recipeml" help:"Convert a RecipeML document to recipe markup"`
}

// BundleGroup contains collection bundle operations.
type BundleGroup struct {
	Create  BundleCreateCmd  `cmd:"" help:"Pack a collection into a .tar.xz bundle"`
	Extract BundleExtractCmd `cmd:"" help:"Unpack a bundle into a directory"`
}

// ParseCmd parses one recipe file and prints the model.
type ParseCmd struct {
	Path  string `arg:"" help:"Recipe file to parse" type:"existingfile"`
	Units string `help:"Extra units file layered over the bundled table" type:"existingfile"`
	JSON  bool   `help:"Output the recipe model as JSON"`
}

func (c *ParseCmd) Run() error {
	src, err := readRecipeFile(c.Path)
	if err != nil {
		return err
	}
	p, err := newParser(c.Units)
	if err != nil {
		return err
	}

	rec, rep := p.Parse(src)
	printDiags(c.Path, src, rep)

	if c.JSON {
		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize recipe: %w", err)
		}
		fmt.Println(string(out))
	} else {
		printRecipeSummary(rec)
	}

	if rep.HasErrors() {
		return fmt.Errorf("%d error(s)", len(rep.Errors()))
	}
	return nil
}

// ValidateCmd checks recipe files and reports diagnostics.
type ValidateCmd struct {
	Paths []string `arg:"" help:"Recipe files to check" type:"existingfile"`
	Units string   `help:"Extra units file layered over the bundled table" type:"existingfile"`
	Quiet bool     `short:"q" help:"Only print the per-file result lines"`
}

func (c *ValidateCmd) Run() error {
	p, err := newParser(c.Units)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range c.Paths {
		src, err := readRecipeFile(path)
		if err != nil {
			fmt.Printf("  [FAIL] %s: %v\n", path, err)
			failed++
			continue
		}

		_, rep := p.Parse(src)
		if !c.Quiet {
			printDiags(path, src, rep)
		}

		switch {
		case rep.HasErrors():
			fmt.Printf("  [FAIL] %s: %d error(s), %d warning(s)\n",
				path, len(rep.Errors()), len(rep.Warnings()))
			failed++
		case !rep.IsEmpty():
			fmt.Printf("  [WARN] %s: %d warning(s)\n", path, len(rep.Warnings()))
		default:
			fmt.Printf("  [OK]   %s\n", path)
		}
	}

	fmt.Printf("\nChecked %d file(s), %d failed\n", len(c.Paths), failed)
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed validation", failed)
	}
	return nil
}

// ScaleCmd scales a recipe and prints the result.
type ScaleCmd struct {
	Path     string  `arg:"" help:"Recipe file to scale" type:"existingfile"`
	Factor   float64 `help:"Uniform scale factor" xor:"target"`
	Servings uint32  `help:"Target serving count (needs declared servings)" xor:"target"`
	Units    string  `help:"Extra units file layered over the bundled table" type:"existingfile"`
	JSON     bool    `help:"Output the scaled recipe as JSON"`
}

func (c *ScaleCmd) Run() error {
	var target recipe.Target
	switch {
	case c.Factor > 0:
		target = recipe.ScaleFactor(c.Factor)
	case c.Servings > 0:
		target = recipe.ToServings(c.Servings)
	default:
		return fmt.Errorf("specify --factor or --servings")
	}

	src, err := readRecipeFile(c.Path)
	if err != nil {
		return err
	}
	p, err := newParser(c.Units)
	if err != nil {
		return err
	}

	rec, rep := p.Parse(src)
	scaled, srep := p.Scale(rec, target)
	rep = rep.Zip(srep)
	printDiags(c.Path, src, rep)

	if c.JSON {
		out, err := json.MarshalIndent(scaled, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize recipe: %w", err)
		}
		fmt.Println(string(out))
	} else {
		printScaledSummary(scaled)
	}

	if rep.HasErrors() {
		return fmt.Errorf("%d error(s)", len(rep.Errors()))
	}
	return nil
}

// UnitsListCmd lists the known units.
type UnitsListCmd struct {
	Units  string `help:"Extra units file layered over the bundled table" type:"existingfile"`
	System string `help:"Only list units of one system (metric, imperial, none)"`
}

func (c *UnitsListCmd) Run() error {
	conv, err := newConverter(c.Units)
	if err != nil {
		return err
	}

	filter := false
	var sys units.System
	if c.System != "" {
		sys, err = units.ParseSystem(c.System)
		if err != nil {
			return err
		}
		filter = true
	}

	list := conv.Units()
	sort.Slice(list, func(i, j int) bool {
		if list[i].Quantity != list[j].Quantity {
			return list[i].Quantity < list[j].Quantity
		}
		return list[i].Name() < list[j].Name()
	})

	fmt.Printf("%-20s %-10s %-10s %-12s\n", "UNIT", "SYMBOL", "SYSTEM", "QUANTITY")
	fmt.Printf("%-20s %-10s %-10s %-12s\n", "----", "------", "------", "--------")

	count := 0
	for _, u := range list {
		if filter && u.System != sys {
			continue
		}
		fmt.Printf("%-20s %-10s %-10s %-12s\n", u.Name(), u.Symbol(), u.System, u.Quantity)
		count++
	}

	fmt.Printf("\nTotal: %d units\n", count)
	return nil
}

// UnitsConvertCmd converts a quantity between units.
type UnitsConvertCmd struct {
	Value  string `arg:"" help:"Value: a number, fraction (1/2, 2 1/2) or range (2-3)"`
	Unit   string `arg:"" help:"Source unit label"`
	To     string `help:"Target unit" xor:"target"`
	System string `help:"Target system, picks the best-fitting unit (metric, imperial)" xor:"target"`
	Units  string `help:"Extra units file layered over the bundled table" type:"existingfile"`
}

func (c *UnitsConvertCmd) Run() error {
	v, err := parseValue(c.Value)
	if err != nil {
		return err
	}

	var target units.Target
	switch {
	case c.To != "":
		target = units.ToUnit(c.To)
	case c.System != "":
		sys, err := units.ParseSystem(c.System)
		if err != nil {
			return err
		}
		target = units.ToSystem(sys)
	default:
		return fmt.Errorf("specify --to or --system")
	}

	conv, err := newConverter(c.Units)
	if err != nil {
		return err
	}

	q := quantity.New(v, c.Unit)
	out, err := conv.Convert(q, target)
	if err != nil {
		return err
	}

	fmt.Printf("%s = %s\n", q, out)
	return nil
}

// IndexBuildCmd scans a collection directory into the index.
type IndexBuildCmd struct {
	Dir string `arg:"" help:"Collection directory" type:"existingdir"`
	DB  string `help:"Index database path (default: inside the collection)" type:"path"`
}

func (c *IndexBuildCmd) Run() error {
	dbPath := c.DB
	if dbPath == "" {
		dbPath = filepath.Join(c.Dir, defaultIndexName)
	}

	ix, err := index.Open(dbPath)
	if err != nil {
		return err
	}
	defer ix.Close()

	res, err := ix.Scan(context.Background(), c.Dir)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("Indexed: %s\n", c.Dir)
	fmt.Printf("  Scanned: %d\n", res.Scanned)
	fmt.Printf("  Updated: %d\n", res.Updated)
	fmt.Printf("  Skipped: %d\n", res.Skipped)
	fmt.Printf("  Pruned: %d\n", res.Pruned)
	fmt.Printf("  Duration: %v\n", res.Duration)

	total, err := ix.Count()
	if err != nil {
		return err
	}
	fmt.Printf("\nTotal: %d recipes in %s\n", total, dbPath)
	return nil
}

// IndexLookupCmd looks up indexed recipes by name.
type IndexLookupCmd struct {
	Name string `arg:"" help:"Recipe name (case-insensitive)"`
	DB   string `help:"Index database path" default:".galley-index.db" type:"path"`
	JSON bool   `help:"Output entries as JSON"`
}

func (c *IndexLookupCmd) Run() error {
	ix, err := index.Open(c.DB)
	if err != nil {
		return err
	}
	defer ix.Close()

	entries, err := ix.Lookup(c.Name)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no recipe named %q in the index", c.Name)
	}

	if c.JSON {
		out, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s\n", e.Name)
		fmt.Printf("  Path: %s\n", e.Path)
		if e.Servings != nil {
			fmt.Printf("  Servings: %d\n", *e.Servings)
		}
		if len(e.Tags) > 0 {
			fmt.Printf("  Tags: %s\n", strings.Join(e.Tags, ", "))
		}
		fmt.Printf("  Hash: %s\n", shortHash(e.Hash))
		fmt.Printf("  Scanned: %s\n", e.ScannedAt.Format("2006-01-02 15:04:05"))
	}
	if len(entries) > 1 {
		fmt.Printf("\n%d recipes share this name\n", len(entries))
	}
	return nil
}

// ServeCmd serves a collection with live preview.
type ServeCmd struct {
	Dir     string   `arg:"" help:"Collection directory" type:"existingdir"`
	Port    int      `help:"HTTP server port" default:"8080"`
	DB      string   `help:"Index database path (default: inside the collection)" type:"path"`
	Origins []string `help:"Allowed CORS origins (default: allow all)"`
}

func (c *ServeCmd) Run() error {
	dbPath := c.DB
	if dbPath == "" {
		dbPath = filepath.Join(c.Dir, defaultIndexName)
	}

	srv, err := server.New(server.Config{
		Dir:            c.Dir,
		IndexPath:      dbPath,
		Port:           c.Port,
		AllowedOrigins: c.Origins,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

// ImportRecipeMLCmd converts a RecipeML document to recipe markup.
type ImportRecipeMLCmd struct {
	Path  string `arg:"" help:"RecipeML XML document" type:"existingfile"`
	Out   string `short:"o" help:"Output directory for .cook files" default:"." type:"path"`
	Force bool   `help:"Overwrite existing files"`
}

func (c *ImportRecipeMLCmd) Run() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	if _, err := validation.ValidateFileType(bytes.NewReader(data), c.Path); err != nil {
		return fmt.Errorf("refusing to import %s: %w", c.Path, err)
	}

	converted, err := importer.FromRecipeML(data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.Out, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	written := 0
	for _, conv := range converted {
		dst := filepath.Join(c.Out, fileStem(conv.Name)+".cook")
		if !c.Force {
			if _, err := os.Stat(dst); err == nil {
				fmt.Printf("  [SKIP] %s already exists (use --force)\n", dst)
				continue
			}
		}

		_, rep := galley.Parse(conv.Source)
		if err := os.WriteFile(dst, []byte(conv.Source), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dst, err)
		}

		switch {
		case rep.HasErrors():
			fmt.Printf("  [WARN] %s: converted with %d error(s)\n", dst, len(rep.Errors()))
		case !rep.IsEmpty():
			fmt.Printf("  [OK]   %s (%d warning(s))\n", dst, len(rep.Warnings()))
		default:
			fmt.Printf("  [OK]   %s\n", dst)
		}
		written++
	}

	fmt.Printf("\nConverted %d recipe(s) to %s\n", written, c.Out)
	return nil
}

// BundleCreateCmd packs a collection into a bundle.
type BundleCreateCmd struct {
	Dir string `arg:"" help:"Collection directory" type:"existingdir"`
	Out string `arg:"" help:"Output bundle path (.tar.xz)" type:"path"`
}

func (c *BundleCreateCmd) Run() error {
	man, err := bundle.Create(c.Dir, c.Out)
	if err != nil {
		return err
	}

	fmt.Printf("Created: %s\n", c.Out)
	fmt.Printf("  Name: %s\n", man.Name)
	fmt.Printf("  Recipes: %d\n", man.Recipes)
	if man.Units > 0 {
		fmt.Printf("  Units files: %d\n", man.Units)
	}
	return nil
}

// BundleExtractCmd unpacks a bundle into a directory.
type BundleExtractCmd struct {
	Path string `arg:"" help:"Bundle to extract" type:"existingfile"`
	Out  string `arg:"" help:"Output directory" type:"path"`
}

func (c *BundleExtractCmd) Run() error {
	if !bundle.IsSupportedFormat(c.Path) {
		return fmt.Errorf("unsupported bundle format: %s", c.Path)
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return fmt.Errorf("failed to open bundle: %w", err)
	}
	_, err = validation.ValidateFileType(f, c.Path)
	f.Close()
	if err != nil {
		return fmt.Errorf("refusing to extract %s: %w", c.Path, err)
	}

	n, err := bundle.Extract(c.Path, c.Out)
	if err != nil {
		return err
	}

	fmt.Printf("Extracted: %d file(s) to %s\n", n, c.Out)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("galley version %s\n", version)
	return nil
}

// Helper functions

// readRecipeFile reads one markup source, refusing files over the size
// limit the rest of the toolchain enforces.
func readRecipeFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat recipe: %w", err)
	}
	if info.Size() > validation.MaxRecipeSize {
		return "", fmt.Errorf("recipe file exceeds %d bytes", int64(validation.MaxRecipeSize))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read recipe: %w", err)
	}
	return string(data), nil
}

// newParser builds the full-featured parser, optionally layering a user
// units file over the bundled table.
func newParser(unitsPath string) (*galley.Parser, error) {
	p := galley.NewParser()
	if unitsPath != "" {
		conv, err := newConverter(unitsPath)
		if err != nil {
			return nil, err
		}
		p.Converter = conv
	}
	return p, nil
}

// newConverter builds a unit converter: the bundled table, plus an
// optional extra layer.
func newConverter(unitsPath string) (*units.Converter, error) {
	if unitsPath == "" {
		return units.Default(), nil
	}

	base, err := units.Bundled()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(unitsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read units file: %w", err)
	}
	extra, err := units.ParseUnitsFile(data)
	if err != nil {
		return nil, fmt.Errorf("invalid units file %s: %w", unitsPath, err)
	}
	conv, err := units.NewBuilder().Add(base).Add(extra).Finish()
	if err != nil {
		return nil, fmt.Errorf("failed to build unit table: %w", err)
	}
	return conv, nil
}

// printDiags renders a report against its source to stderr.
func printDiags(name, source string, rep *report.Report) {
	if rep.IsEmpty() {
		return
	}
	fmt.Fprint(os.Stderr, rep.RenderString(name, source))
}

// printRecipeSummary prints a human-readable overview of a recipe.
func printRecipeSummary(rec *recipe.Recipe) {
	if title, ok := rec.Metadata.Get("title"); ok {
		fmt.Printf("Recipe: %s\n", title)
	}
	sp := rec.Metadata.Special
	if sp.Servings != nil {
		fmt.Printf("  Servings: %d\n", *sp.Servings)
	}
	if sp.Time != nil {
		fmt.Printf("  Time: %d min\n", sp.Time.Minutes())
	}
	if len(sp.Tags) > 0 {
		fmt.Printf("  Tags: %s\n", strings.Join(sp.Tags, ", "))
	}
	if sp.Author != nil {
		fmt.Printf("  Author: %s\n", sp.Author)
	}
	if sp.Source != nil {
		fmt.Printf("  Source: %s\n", sp.Source)
	}

	steps := 0
	for _, sec := range rec.Sections {
		for _, content := range sec.Content {
			if _, ok := content.(recipe.Step); ok {
				steps++
			}
		}
	}
	fmt.Printf("  Sections: %d, steps: %d\n", len(rec.Sections), steps)

	if len(rec.Ingredients) > 0 {
		fmt.Println("\nIngredients:")
		for i := range rec.Ingredients {
			fmt.Printf("  - %s\n", ingredientLine(&rec.Ingredients[i]))
		}
	}
	if len(rec.Cookware) > 0 {
		fmt.Println("\nCookware:")
		for i := range rec.Cookware {
			cw := &rec.Cookware[i]
			if cw.Amount != nil {
				fmt.Printf("  - %s (%s)\n", cw.Name, cw.Amount)
			} else {
				fmt.Printf("  - %s\n", cw.Name)
			}
		}
	}
	if len(rec.Timers) > 0 {
		fmt.Println("\nTimers:")
		for i := range rec.Timers {
			t := &rec.Timers[i]
			switch {
			case t.Name != "" && t.Quantity != nil:
				fmt.Printf("  - %s: %s\n", t.Name, t.Quantity)
			case t.Quantity != nil:
				fmt.Printf("  - %s\n", t.Quantity)
			default:
				fmt.Printf("  - %s\n", t.Name)
			}
		}
	}
}

// printScaledSummary prints the scaled ingredient list with per-quantity
// outcomes.
func printScaledSummary(sc *recipe.ScaledRecipe) {
	fmt.Printf("Scaled by %g\n", sc.Scaling.Factor)

	if len(sc.Ingredients) > 0 {
		fmt.Println("\nIngredients:")
		for i := range sc.Ingredients {
			line := ingredientLine(&sc.Ingredients[i])
			if oc := sc.Scaling.Ingredients[i]; oc.Kind != recipe.OutcomeScaled {
				note := oc.Kind.String()
				if oc.Reason != "" {
					note = oc.Reason
				}
				line += fmt.Sprintf(" [%s]", note)
			}
			fmt.Printf("  - %s\n", line)
		}
	}

	if len(sc.Timers) > 0 {
		fmt.Println("\nTimers (never scaled):")
		for i := range sc.Timers {
			t := &sc.Timers[i]
			if t.Quantity != nil {
				fmt.Printf("  - %s\n", t.Quantity)
			}
		}
	}
}

// ingredientLine formats one ingredient for display.
func ingredientLine(ing *recipe.Ingredient) string {
	name := ing.Name
	if ing.Alias != "" {
		name = ing.Alias
	}
	line := name
	if ing.Quantity != nil {
		line = fmt.Sprintf("%s: %s", name, ing.Quantity)
	}
	if ing.Note != "" {
		line += fmt.Sprintf(" (%s)", ing.Note)
	}
	return line
}

// parseValue reads a CLI quantity value: a plain number, a fraction like
// "1/2" or "2 1/2", or a range like "2-3".
func parseValue(s string) (quantity.Value, error) {
	s = strings.TrimSpace(s)

	if i := strings.IndexByte(s, '-'); i > 0 {
		lo, err1 := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64)
		hi, err2 := strconv.ParseFloat(strings.TrimSpace(s[i+1:]), 64)
		if err1 == nil && err2 == nil {
			return quantity.NewRange(quantity.Regular(lo), quantity.Regular(hi)), nil
		}
	}

	if strings.ContainsRune(s, '/') {
		whole := int64(0)
		frac := s
		if sp := strings.IndexByte(s, ' '); sp > 0 {
			w, err := strconv.ParseInt(strings.TrimSpace(s[:sp]), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q", s)
			}
			whole = w
			frac = strings.TrimSpace(s[sp+1:])
		}
		num, den, ok := strings.Cut(frac, "/")
		if !ok {
			return nil, fmt.Errorf("invalid value %q", s)
		}
		n, err1 := strconv.ParseInt(strings.TrimSpace(num), 10, 32)
		d, err2 := strconv.ParseInt(strings.TrimSpace(den), 10, 32)
		if err1 != nil || err2 != nil || d == 0 {
			return nil, fmt.Errorf("invalid value %q", s)
		}
		return quantity.Fraction{Whole: int32(whole), Num: int32(n), Den: int32(d)}, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q", s)
	}
	return quantity.Regular(f), nil
}

// fileStem turns a recipe title into a filename stem. Path-like
// characters become dashes; a title that sanitizes away entirely
// falls back to "untitled".
func fileStem(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '-'
		}
		return r
	}, name)
	stem, err := validation.SanitizeFilename(mapped)
	if err != nil {
		return "untitled"
	}
	return stem
}

// shortHash abbreviates a content hash for display.
func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16] + "..."
	}
	return h
}

func parseLogLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	}
	return logging.LevelInfo
}

func parseLogFormat(s string) logging.Format {
	if s == "json" {
		return logging.FormatJSON
	}
	return logging.FormatText
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("galley"),
		kong.Description("Galley - recipe markup toolchain"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(parseLogLevel(CLI.LogLevel), parseLogFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
