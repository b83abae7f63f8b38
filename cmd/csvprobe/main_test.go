package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"csvsample/internal/config"
	"csvsample/internal/exitcode"
)

const helperEnv = "GO_WANT_MAIN_HELPER"

// TestHelperProcess runs main() when the test binary is re-executed with
// GO_WANT_MAIN_HELPER=1; flags follow a literal "--".
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			os.Args = append([]string{args[0]}, args[i+1:]...)
			break
		}
	}
	main()
}

// runMainSubprocess runs main in a child process and returns its exit code.
func runMainSubprocess(t *testing.T, flags ...string) (stdout, stderr string, code int) {
	t.Helper()

	cmd := exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--")
	cmd.Env = append(os.Environ(), helperEnv+"=1")
	cmd.Args = append(cmd.Args, flags...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	var ee *exec.ExitError
	switch {
	case err == nil:
		code = 0
	case errors.As(err, &ee):
		code = ee.ExitCode()
	default:
		t.Fatalf("run subprocess: %v", err)
	}
	return outBuf.String(), errBuf.String(), code
}

func makeTestServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

const observations = "" +
	"Station,Kind,Élévation,Observed on,Active\n" +
	"123,A,15,02.01.2024,true\n" +
	"456,B,22,04.01.2024,false\n" +
	"789,C,,05.01.2024,true\n"

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "stations.csv")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_TextOutput(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t, "-file", writeCSV(t, observations), "-seed", "7")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "Station,station,LONG\n" +
		"Kind,kind,STRING\n" +
		"Élévation,elevation,LONG\n" +
		"Observed on,observed_on,DATE\n" +
		"Active,active,BOOLEAN\n"
	if stdout != want {
		t.Fatalf("got:\n%s\nwant:\n%s", stdout, want)
	}
}

func TestRun_JSONOverHTTP(t *testing.T) {
	t.Parallel()

	srv := makeTestServer(t, observations)
	stdout, _, err := runCLI(t, "-url", srv.URL+"/stations.csv", "-json", "-k", "2", "-seed", "1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var rep struct {
		Name    string `json:"name"`
		Seen    int64  `json:"rows_seen"`
		Sampled int    `json:"rows_sampled"`
		Columns []struct {
			Normalized string `json:"normalized"`
			Type       string `json:"type"`
		} `json:"columns"`
	}
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if rep.Name != "stations" || rep.Seen != 3 || rep.Sampled != 2 || len(rep.Columns) != 5 {
		t.Fatalf("report=%+v", rep)
	}
}

func TestRun_JobOutputDecodesAsJob(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, strings.ReplaceAll(observations, ",", ";"))
	stdout, _, err := runCLI(t, "-file", path, "-delimiter", ";", "-name", "Météo Stations", "-job", "sqlite")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	j, err := config.Decode(strings.NewReader(stdout))
	if err != nil {
		t.Fatalf("decode generated job: %v\n%s", err, stdout)
	}
	if issues := config.ValidateJob(j); config.HasErrors(issues) {
		t.Fatalf("generated job invalid: %v", issues)
	}
	if j.Storage.Kind != "sqlite" || j.Storage.DB.Table != "meteo_stations" {
		t.Fatalf("storage=%+v", j.Storage)
	}
	if got := j.Parser.Options.String("comma", ""); got != ";" {
		t.Fatalf("comma=%q", got)
	}
	if len(j.Schema) != 5 || j.Schema[3] != [2]string{"Observed on", "DATE"} {
		t.Fatalf("schema=%v", j.Schema)
	}
}

func TestRun_SaveSample(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, _, err := runCLI(t, "-file", writeCSV(t, observations), "-save", "-save-dir", dir, "-name", "sample"); err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "sample.csv"))
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if lines := strings.Count(string(b), "\n"); lines != 4 {
		t.Fatalf("sample has %d lines; want header + 3 rows:\n%s", lines, b)
	}
}

func TestRun_ExitCodes(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, observations)
	srv := makeTestServer(t, observations)
	cases := []struct {
		name string
		args []string
		want int
	}{
		{name: "no input", args: nil, want: exitcode.BadRequest},
		{name: "both inputs", args: []string{"-file", path, "-url", srv.URL}, want: exitcode.BadRequest},
		{name: "zero k", args: []string{"-file", path, "-k", "0"}, want: exitcode.BadRequest},
		{name: "bad seed", args: []string{"-file", path, "-seed", "-1"}, want: exitcode.BadRequest},
		{name: "bad delimiter", args: []string{"-file", path, "-delimiter", ";;"}, want: exitcode.BadRequest},
		{name: "bad datepref", args: []string{"-file", path, "-datepref", "asia"}, want: exitcode.BadRequest},
		{name: "unknown flag", args: []string{"-bytes", "100"}, want: exitcode.BadRequest},
		{name: "schema not json", args: []string{"-file", path, "-schema", "id:LONG"}, want: exitcode.BadRequest},
		{name: "missing file", args: []string{"-file", filepath.Join(t.TempDir(), "nope.csv")}, want: exitcode.FileNotFound},
		{name: "http 404", args: []string{"-url", srv.URL + "/missing.csv"}, want: exitcode.FileNotFound},
		{
			name: "invalid type",
			args: []string{"-file", path, "-schema", `[["a","LONG"],["b","STRING"],["c","MONEY"],["d","DATE"],["e","BOOLEAN"]]`},
			want: exitcode.InvalidDataType,
		},
		{
			name: "column mismatch",
			args: []string{"-file", path, "-schema", `[["a","LONG"]]`},
			want: exitcode.ColumnMismatch,
		},
		{name: "ok", args: []string{"-file", path}, want: exitcode.Success},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := runCLI(t, tc.args...)
			if got := exitcode.For(err); got != tc.want {
				t.Fatalf("exit=%d (err=%v); want %d", got, err, tc.want)
			}
		})
	}
}

func TestMain_ProcessExitCode(t *testing.T) {
	t.Parallel()

	stdout, stderr, code := runMainSubprocess(t, "-file", writeCSV(t, observations))
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "Station,station,LONG\n") {
		t.Fatalf("stdout=%q", stdout)
	}

	_, stderr, code = runMainSubprocess(t, "-file", filepath.Join(t.TempDir(), "nope.csv"))
	if code != exitcode.FileNotFound {
		t.Fatalf("exit=%d; want %d (stderr=%s)", code, exitcode.FileNotFound, stderr)
	}
}
