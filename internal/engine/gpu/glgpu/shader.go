package glgpu

import (
	"errors"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/showroom/internal/engine/gpu"
)

// stage is one shader source of a program.
type stage struct {
	kind uint32
	name string
	src  string
}

// buildProgram compiles and links the stages into a program named name.
// Failures come back as *gpu.ResourceError carrying the driver's info log.
func buildProgram(name string, stages ...stage) (uint32, error) {
	program := gl.CreateProgram()
	shaders := make([]uint32, 0, len(stages))
	defer func() {
		for _, s := range shaders {
			gl.DeleteShader(s)
		}
	}()

	for _, st := range stages {
		s, err := compileStage(st)
		if err != nil {
			gl.DeleteProgram(program)
			return 0, &gpu.ResourceError{Kind: "program", Name: name, Err: err}
		}
		gl.AttachShader(program, s)
		shaders = append(shaders, s)
	}

	gl.LinkProgram(program)
	var ok int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		var n int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &n)
		buf := make([]byte, n+1)
		gl.GetProgramInfoLog(program, n, nil, &buf[0])
		gl.DeleteProgram(program)
		return 0, &gpu.ResourceError{Kind: "program", Name: name, Err: stageError("link", buf)}
	}
	return program, nil
}

func compileStage(st stage) (uint32, error) {
	s := gl.CreateShader(st.kind)
	src, free := gl.Strs(st.src + "\x00")
	gl.ShaderSource(s, 1, src, nil)
	free()
	gl.CompileShader(s)

	var ok int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &ok)
	if ok == gl.TRUE {
		return s, nil
	}
	var n int32
	gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &n)
	buf := make([]byte, n+1)
	gl.GetShaderInfoLog(s, n, nil, &buf[0])
	gl.DeleteShader(s)
	return 0, stageError(st.name, buf)
}

// stageError turns a NUL padded info log into an error prefixed by step.
func stageError(step string, log []byte) error {
	msg := strings.TrimSpace(strings.TrimRight(string(log), "\x00"))
	if msg == "" {
		msg = "no info log"
	}
	return errors.New(step + ": " + msg)
}

func uniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
