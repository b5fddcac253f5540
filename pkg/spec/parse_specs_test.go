package spec_test

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
)

func parseSpecFilesInFS(fsys embed.FS) []spec {
	var specs []spec
	fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, _ error) error {
		if !d.Type().IsDir() && strings.HasSuffix(path, ".test.sh") {
			content, _ := fsys.ReadFile(path)
			specs = append(specs, parseSpecFile(path, string(content))...)
		}
		return nil
	})
	return specs
}

var annotationPattern = regexp.MustCompile(`^(BUG|OK|N-I) +`)

// Parses a spec file in the format of the Oil shell's spec tests. Each spec
// starts with a "#### name" line, followed by code lines and "## key: value"
// metadata lines.
//
//   - Metadata annotated with "OK" describe acceptable alternative behavior;
//     for example "## status: 0" and "## OK status: 2" accept both statuses.
//
//   - Metadata annotated with "BUG" or "N-I" are ignored.
//
//   - An additional "argv-json" key gives the arguments of the shell,
//     starting with $0.
func parseSpecFile(filename, content string) []spec {
	var specs []spec
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	i := 0

	warn := func(msg string) {
		fmt.Fprintf(os.Stderr, "%v:%v: %v: %v\n", filename, i+1, msg, lines[i])
	}
	readMultiLine := func() string {
		var b strings.Builder
		for i++; i < len(lines) && lines[i] != "## END"; i++ {
			b.WriteString(lines[i])
			b.WriteByte('\n')
		}
		return b.String()
	}
	suite := strings.TrimSuffix(filename[strings.LastIndexByte(filename, '/')+1:], ".test.sh")

	for i < len(lines) {
		for ; i < len(lines) && !isName(lines[i]); i++ {
			if isMetadata(lines[i]) {
				warn("metadata line before spec")
			} else if !isEmptyOrComment(lines[i]) {
				warn("code line before spec")
			}
		}
		if i == len(lines) {
			break
		}
		sp := spec{suite: suite, name: lines[i][len(namePrefix):]}
		var code strings.Builder
		for i++; i < len(lines) && !isName(lines[i]) && !isMetadata(lines[i]); i++ {
			code.WriteString(lines[i])
			code.WriteByte('\n')
		}
		for ; i < len(lines) && (isMetadata(lines[i]) || isEmptyOrComment(lines[i])); i++ {
			if isEmptyOrComment(lines[i]) {
				continue
			}
			metadata := lines[i][len(metadataPrefix):]
			ignore := false
			if annotation := annotationPattern.FindStringSubmatch(metadata); annotation != nil {
				metadata = metadata[len(annotation[0]):]
				ignore = annotation[1] != "OK"
			}
			key, value, ok := strings.Cut(metadata, ":")
			if !ok {
				warn("can't parse key from metadata")
				continue
			}
			value = strings.TrimLeft(value, " ")
			if ignore {
				if key == "STDOUT" || key == "STDERR" {
					readMultiLine()
				}
				continue
			}
			switch key {
			case "argv-json":
				if err := json.Unmarshal([]byte(value), &sp.argv); err != nil {
					warn("can't parse argv-json as JSON")
				}
			case "status":
				if status, err := strconv.Atoi(value); err != nil {
					warn("can't parse status as number")
				} else {
					sp.statuses = append(sp.statuses, status)
				}
			case "stdout":
				sp.stdouts = append(sp.stdouts, value+"\n")
			case "stderr":
				sp.stderrs = append(sp.stderrs, value+"\n")
			case "stdout-json", "stderr-json":
				var s string
				if err := json.Unmarshal([]byte(value), &s); err != nil {
					warn("can't parse " + key + " as JSON")
				} else if key == "stdout-json" {
					sp.stdouts = append(sp.stdouts, s)
				} else {
					sp.stderrs = append(sp.stderrs, s)
				}
			case "STDOUT":
				sp.stdouts = append(sp.stdouts, readMultiLine())
			case "STDERR":
				sp.stderrs = append(sp.stderrs, readMultiLine())
			default:
				warn("unknown key " + key)
			}
		}
		if len(sp.statuses) == 0 {
			sp.statuses = []int{0}
		}
		sp.code = code.String()
		specs = append(specs, sp)
	}
	return specs
}

const (
	namePrefix     = "#### "
	metadataPrefix = "## "
)

func isName(line string) bool     { return strings.HasPrefix(line, namePrefix) }
func isMetadata(line string) bool { return strings.HasPrefix(line, metadataPrefix) }

func isEmptyOrComment(line string) bool {
	line = strings.TrimSpace(line)
	return line == "" || (strings.HasPrefix(line, "#") && !isMetadata(line) && !isName(line))
}
