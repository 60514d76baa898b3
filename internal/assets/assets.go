// Package assets loads everything the renderer consumes from outside the GPU:
// texture pixels, mesh geometry and compiled SPIR-V shaders. Defaults are
// embedded in the binary; config paths override them. Loading is concurrent
// since the pieces are independent.
package assets

import (
	"bytes"
	"context"
	"embed"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/MauricioRTG/VulkanSandbox/internal/config"
)

//go:embed shaders images
var embedded embed.FS

// Texture is decoded RGBA pixel data ready for a staging upload.
type Texture struct {
	Pixels []byte
	Width  int
	Height int
}

// Bundle is everything Load produces.
type Bundle struct {
	Texture  Texture
	Vertices []Vertex
	Indices  []uint32

	VertexSPIRV   []uint32
	FragmentSPIRV []uint32
}

// Load gathers texture, mesh and shaders concurrently. Empty config paths
// select the embedded texture, the built-in quad, and the embedded shaders.
func Load(ctx context.Context, cfg config.AssetsConfig) (*Bundle, error) {
	bundle := &Bundle{}
	group, _ := errgroup.WithContext(ctx)

	group.Go(func() error {
		tex, err := loadTexture(cfg.TexturePath)
		if err != nil {
			return err
		}
		bundle.Texture = tex
		return nil
	})

	group.Go(func() error {
		if cfg.MeshPath == "" {
			bundle.Vertices, bundle.Indices = Quad()
			return nil
		}
		vertices, indices, err := loadMesh(cfg.MeshPath)
		if err != nil {
			return err
		}
		bundle.Vertices, bundle.Indices = vertices, indices
		return nil
	})

	group.Go(func() error {
		vert, frag, err := LoadShaders(cfg.ShaderDir)
		if err != nil {
			return err
		}
		bundle.VertexSPIRV, bundle.FragmentSPIRV = vert, frag
		return nil
	})

	err := group.Wait()
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

func loadTexture(path string) (Texture, error) {
	var data []byte
	var err error
	if path == "" {
		data, err = embedded.ReadFile("images/quad.png")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return Texture{}, errors.Wrap(err, "reading texture")
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return Texture{}, errors.Wrap(err, "decoding texture PNG")
	}

	return rgbaPixels(decoded), nil
}

func rgbaPixels(img image.Image) Texture {
	bounds := img.Bounds()
	size := bounds.Size()
	pixels := make([]byte, 0, size.X*size.Y*4)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			pixels = append(pixels, byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8))
		}
	}

	return Texture{Pixels: pixels, Width: size.X, Height: size.Y}
}

func loadMesh(path string) ([]Vertex, []uint32, error) {
	meshFile, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening mesh %s", path)
	}
	defer meshFile.Close()

	// A sibling .mtl is optional; the decoder accepts a nil reader.
	var matReader io.Reader
	matPath := path[:len(path)-len(filepath.Ext(path))] + ".mtl"
	matFile, err := os.Open(matPath)
	if err == nil {
		defer matFile.Close()
		matReader = matFile
	}

	decoder, err := obj.DecodeReader(meshFile, matReader)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "decoding mesh %s", path)
	}

	var vertices []Vertex
	var indices []uint32
	uniqueVertices := make(map[int]uint32)

	appendVertex := func(face obj.Face, faceIndex int) {
		vertInd := face.Vertices[faceIndex]
		index, exists := uniqueVertices[vertInd]
		if !exists {
			vert := Vertex{
				Position: mgl32.Vec3{
					decoder.Vertices[vertInd*3],
					decoder.Vertices[vertInd*3+1],
					decoder.Vertices[vertInd*3+2],
				},
				Color: mgl32.Vec3{1, 1, 1},
			}

			uvInd := face.Uvs[faceIndex]
			vert.TexCoord = mgl32.Vec2{
				decoder.Uvs[uvInd*2],
				1.0 - decoder.Uvs[uvInd*2+1],
			}

			index = uint32(len(vertices))
			vertices = append(vertices, vert)
			uniqueVertices[vertInd] = index
		}
		indices = append(indices, index)
	}

	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			// Triangulate faces with more than three vertices.
			for i := 2; i < len(face.Vertices); i++ {
				appendVertex(face, 0)
				appendVertex(face, i-1)
				appendVertex(face, i)
			}
		}
	}

	if len(indices) == 0 {
		return nil, nil, errors.Errorf("mesh %s contains no faces", path)
	}

	return vertices, indices, nil
}

// LoadShaders reads the compiled vertex and fragment shaders from dir, or
// from the embedded copies when dir is empty. Called again at runtime when
// the shader watcher reports a change.
func LoadShaders(dir string) ([]uint32, []uint32, error) {
	vert, err := loadSPIRV(dir, "vert.spv")
	if err != nil {
		return nil, nil, err
	}
	frag, err := loadSPIRV(dir, "frag.spv")
	if err != nil {
		return nil, nil, err
	}
	return vert, frag, nil
}

func loadSPIRV(dir, name string) ([]uint32, error) {
	var data []byte
	var err error
	if dir == "" {
		data, err = embedded.ReadFile("shaders/" + name)
	} else {
		data, err = os.ReadFile(filepath.Join(dir, name))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading shader %s (compile shaders with 'mage build:shaders')", name)
	}

	return SPIRVWords(data)
}

// SPIRVWords reinterprets raw shader bytes as little-endian 32-bit SPIR-V
// words.
func SPIRVWords(data []byte) ([]uint32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, errors.Errorf("SPIR-V byte length must be a positive multiple of 4, got %d", len(data))
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		byteIndex := i * 4
		words[i] = uint32(data[byteIndex]) |
			uint32(data[byteIndex+1])<<8 |
			uint32(data[byteIndex+2])<<16 |
			uint32(data[byteIndex+3])<<24
	}

	return words, nil
}
