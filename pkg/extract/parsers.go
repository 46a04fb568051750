// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/logs"
)

// stackParser turns a raw trace into frames plus the exception type found in
// the trace header, if any. Parsers never fail; an unparseable trace yields
// an empty frame list.
type stackParser interface {
	detect(trace string) bool
	parse(trace string) (frames []logs.StackFrame, headerType string)
}

// Java: "at com.x.UserService.getUser(UserService.java:45)" with optional
// "Caused by:" chains. When a chain exists, the frames of the deepest cause
// win; the originating frame stays at position 0.
type javaParser struct{}

var (
	javaFrameRe  = regexp.MustCompile(`^\s*at\s+([\w.$<>]+)\.([\w$<>]+)\(([^:()]+):(\d+)\)`)
	javaHeaderRe = regexp.MustCompile(`^([\w.]+(?:Exception|Error|Throwable)[\w]*)(?::|$)`)
	causedByRe   = regexp.MustCompile(`^\s*Caused by:\s*`)
)

func (p *javaParser) detect(trace string) bool {
	return javaFrameRe.MatchString(firstMatchingLine(trace, javaFrameRe))
}

func (p *javaParser) parse(trace string) ([]logs.StackFrame, string) {
	sections := [][]string{{}}
	var headers []string
	for i, line := range strings.Split(trace, "\n") {
		if i == 0 || causedByRe.MatchString(line) {
			header := causedByRe.ReplaceAllString(strings.TrimSpace(line), "")
			if m := javaHeaderRe.FindStringSubmatch(header); m != nil {
				headers = append(headers, shortTypeName(m[1]))
			}
			if i > 0 {
				sections = append(sections, []string{})
			}
		}
		sections[len(sections)-1] = append(sections[len(sections)-1], line)
	}

	// Deepest cause first; fall back to earlier sections when it parsed empty.
	var frames []logs.StackFrame
	for i := len(sections) - 1; i >= 0 && len(frames) == 0; i-- {
		frames = p.parseSection(sections[i])
	}

	headerType := ""
	if len(headers) > 0 {
		headerType = headers[len(headers)-1]
	}
	return frames, headerType
}

func (p *javaParser) parseSection(lines []string) []logs.StackFrame {
	var frames []logs.StackFrame
	for _, line := range lines {
		m := javaFrameRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(m[4])
		frames = append(frames, logs.StackFrame{
			File:     m[3],
			Symbol:   m[1] + "." + m[2],
			Line:     lineNo,
			Language: logs.LangJava,
		})
	}
	return frames
}

// Python: paired lines `File "<path>", line <n>, in <func>`. Python prints
// the originating frame last, so frames are reversed to keep it at
// position 0.
type pythonParser struct{}

var (
	pyFrameRe  = regexp.MustCompile(`^\s*File "([^"]+)", line (\d+), in (\S+)`)
	pyHeaderRe = regexp.MustCompile(`^([\w.]+(?:Error|Exception|Warning|Interrupt))(?::|$)`)
)

func (p *pythonParser) detect(trace string) bool {
	return strings.Contains(trace, `File "`) &&
		(strings.Contains(trace, "Traceback") || pyFrameRe.MatchString(firstMatchingLine(trace, pyFrameRe)))
}

func (p *pythonParser) parse(trace string) ([]logs.StackFrame, string) {
	var frames []logs.StackFrame
	headerType := ""
	for _, line := range strings.Split(trace, "\n") {
		if m := pyFrameRe.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[2])
			frames = append(frames, logs.StackFrame{
				File:     m[1],
				Symbol:   m[3],
				Line:     lineNo,
				Language: logs.LangPython,
			})
			continue
		}
		if m := pyHeaderRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			headerType = shortTypeName(m[1])
		}
	}
	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}
	return frames, headerType
}

// JS/Node: "at func (file:line:col)" and the anonymous "at file:line:col".
type jsParser struct{}

var (
	jsFrameRe     = regexp.MustCompile(`^\s*at\s+(.+?)\s+\((.+?):(\d+):(\d+)\)`)
	jsAnonFrameRe = regexp.MustCompile(`^\s*at\s+([^\s()]+):(\d+):(\d+)\s*$`)
	jsHeaderRe    = regexp.MustCompile(`^(\w*Error)(?::|$)`)
)

func (p *jsParser) detect(trace string) bool {
	for _, line := range strings.Split(trace, "\n") {
		if jsFrameRe.MatchString(line) || jsAnonFrameRe.MatchString(line) {
			return true
		}
	}
	return false
}

func (p *jsParser) parse(trace string) ([]logs.StackFrame, string) {
	var frames []logs.StackFrame
	headerType := ""
	for _, line := range strings.Split(trace, "\n") {
		if m := jsFrameRe.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[3])
			frames = append(frames, logs.StackFrame{
				File:     m[2],
				Symbol:   m[1],
				Line:     lineNo,
				Language: logs.LangJS,
			})
			continue
		}
		if m := jsAnonFrameRe.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[2])
			frames = append(frames, logs.StackFrame{
				File:     m[1],
				Symbol:   "<anonymous>",
				Line:     lineNo,
				Language: logs.LangJS,
			})
			continue
		}
		if headerType == "" {
			if m := jsHeaderRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				headerType = m[1]
			}
		}
	}
	return frames, headerType
}

func firstMatchingLine(trace string, re *regexp.Regexp) string {
	for _, line := range strings.Split(trace, "\n") {
		if re.MatchString(line) {
			return line
		}
	}
	return ""
}

func shortTypeName(fqcn string) string {
	if idx := strings.LastIndex(fqcn, "."); idx >= 0 {
		return fqcn[idx+1:]
	}
	return fqcn
}
