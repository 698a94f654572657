package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
)

//go:embed shaders/warp.wgsl
var warpShaderWGSL string

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic = 0x07230203

// WarpShaderSource returns the WGSL source of the warp compute shader.
func WarpShaderSource() string {
	return warpShaderWGSL
}

// CompileWarpShader compiles the warp shader to SPIR-V words.
func CompileWarpShader() ([]uint32, error) {
	return compile(warpShaderWGSL)
}

func compile(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile warp shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("gpu: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	if len(words) == 0 || words[0] != SPIRVMagic {
		return nil, fmt.Errorf("gpu: compiled shader is not SPIR-V")
	}
	return words, nil
}
