//go:build ignore

// build.go - CampaignPulse Build System
// Usage: go run build.go [-target=TARGET]
// Targets: all, processor, reportserver, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const module = "campaignpulse"

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	GOOS    string
	GOARCH  string
	OutDir  string
}

var (
	rootDir string
	distDir string

	// source dir under cmd/ -> output name without extension
	executables = []string{"processor", "reportserver"}

	releasePlatforms = [][2]string{
		{"linux", "amd64"},
		{"linux", "arm64"},
		{"darwin", "arm64"},
		{"windows", "amd64"},
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s, run the build from the repository root", rootDir))
	}
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	ctx := &BuildContext{
		Verbose: *verbose,
		GOOS:    runtime.GOOS,
		GOARCH:  runtime.GOARCH,
		OutDir:  distDir,
	}

	switch *target {
	case "all":
		buildAll(ctx)
	case "processor", "reportserver":
		buildExecutable(*target, ctx)
	case "test":
		runTests(ctx.Verbose)
	case "clean":
		clean()
	case "release":
		buildRelease(ctx)
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "       CampaignPulse - Build System        " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

func buildAll(ctx *BuildContext) {
	printInfo("Building all executables...")

	if err := checkPrerequisites(); err != nil {
		printError(fmt.Sprintf("Prerequisites check failed: %v", err))
		os.Exit(1)
	}
	if err := os.MkdirAll(ctx.OutDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", ctx.OutDir, err))
		os.Exit(1)
	}

	for _, name := range executables {
		buildExecutable(name, ctx)
	}
	copyConfigFiles(ctx)

	printSuccess("All executables built successfully!")
}

func buildExecutable(name string, ctx *BuildContext) {
	printInfo(fmt.Sprintf("Building %s for %s/%s...", name, ctx.GOOS, ctx.GOARCH))

	exeName := name
	if ctx.GOOS == "windows" {
		exeName += ".exe"
	}
	outputPath := filepath.Join(ctx.OutDir, exeName)

	ldflags := fmt.Sprintf("-s -w -X %[1]s/pkg/contracts.BuildTime=%[2]s -X %[1]s/pkg/contracts.GitCommit=%[3]s",
		module, time.Now().UTC().Format(time.RFC3339), gitCommit())

	args := []string{"build", "-trimpath", "-ldflags", ldflags, "-o", outputPath, "./cmd/" + name}
	if ctx.Verbose {
		args = append([]string{"build", "-v"}, args[1:]...)
	}

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0", "GOOS="+ctx.GOOS, "GOARCH="+ctx.GOARCH)
	cmd.Stderr = os.Stderr
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", outputPath, float64(info.Size())/1024/1024))
	}
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
		return
	}
	printSuccess("Build artifacts cleaned")
}

// buildRelease cross-compiles every executable into dist/<os>_<arch>/
func buildRelease(ctx *BuildContext) {
	printInfo("Building release...")
	clean()

	for _, p := range releasePlatforms {
		platformCtx := *ctx
		platformCtx.GOOS, platformCtx.GOARCH = p[0], p[1]
		platformCtx.OutDir = filepath.Join(distDir, p[0]+"_"+p[1])
		buildAll(&platformCtx)
	}

	versionFile := filepath.Join(distDir, "VERSION.txt")
	content := fmt.Sprintf("CampaignPulse\nCommit: %s\nBuilt: %s\n", gitCommit(), time.Now().Format("2006-01-02 15:04:05"))
	if err := os.WriteFile(versionFile, []byte(content), 0644); err != nil {
		printWarning(fmt.Sprintf("Failed to write %s: %v", versionFile, err))
	}

	printSuccess("Release build completed")
}

func checkPrerequisites() error {
	if err := exec.Command("go", "version").Run(); err != nil {
		return fmt.Errorf("go is not installed or not in PATH")
	}
	return nil
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

// copyConfigFiles ships the sample config next to the executables
func copyConfigFiles(ctx *BuildContext) {
	src := filepath.Join(rootDir, "configs", "config.yaml")
	data, err := os.ReadFile(src)
	if err != nil {
		if ctx.Verbose {
			printWarning("No configs/config.yaml to copy")
		}
		return
	}
	dest := filepath.Join(ctx.OutDir, "config.yaml")
	if err := os.WriteFile(dest, data, 0644); err != nil {
		printWarning(fmt.Sprintf("Failed to copy config: %v", err))
	}
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all           Build processor and reportserver (default)")
	fmt.Println("  processor     Build the batch analysis CLI")
	fmt.Println("  reportserver  Build the read-only report server")
	fmt.Println("  test          Run go test -race ./...")
	fmt.Println("  clean         Remove dist/")
	fmt.Println("  release       Cross-compile every executable into dist/<os>_<arch>/")
}
