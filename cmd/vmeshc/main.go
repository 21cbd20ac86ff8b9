package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	vmesh "github.com/flywave/go-vmesh"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vmeshc: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	output := flag.String("o", "", "Output file (.vmesh or .glb); prints a summary only when empty")
	name := flag.String("name", "", "Override the mesh name")
	compress := flag.Bool("compress", false, "zlib-compress .vmesh payloads")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <input>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Convert a mesh document (.json, .yaml, .toml), glTF (.gltf, .glb) or .vmesh file.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s cube.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -o cube.vmesh -compress cube.yaml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -o cube.glb cube.vmesh\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("exactly one input file required")
	}
	input := flag.Arg(0)

	meshes, err := load(input)
	if err != nil {
		return err
	}
	if *name != "" {
		for i, m := range meshes {
			m.Name = *name
			if len(meshes) > 1 {
				m.Name = fmt.Sprintf("%s#%d", *name, i)
			}
		}
	}
	for _, m := range meshes {
		printSummary(m)
	}

	if *output == "" {
		return nil
	}
	return save(*output, meshes, *compress)
}

func load(path string) ([]*vmesh.Mesh, error) {
	ext := strings.ToLower(filepath.Ext(path))
	slog.Debug("Loading mesh", "path", path, "ext", ext)
	switch ext {
	case vmesh.VMESHEXT:
		m, err := vmesh.MeshReadFrom(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return []*vmesh.Mesh{m}, nil
	case ".gltf", ".glb":
		ms, err := vmesh.MeshReadFromGltf(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if len(ms) == 0 {
			return nil, fmt.Errorf("%s contains no meshes", path)
		}
		return ms, nil
	}
	m, err := vmesh.MeshReadFromDocument(path)
	if err != nil {
		return nil, err
	}
	return []*vmesh.Mesh{m}, nil
}

func save(path string, meshes []*vmesh.Mesh, compress bool) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case vmesh.VMESHEXT:
		if len(meshes) != 1 {
			return fmt.Errorf("%s holds one mesh, input has %d", vmesh.VMESHEXT, len(meshes))
		}
		opts := vmesh.DefaultMarshalOptions
		opts.Compress = compress
		if err := vmesh.MeshWriteToWithOptions(path, meshes[0], opts); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	case ".glb":
		if err := vmesh.MeshWriteToGlb(path, meshes); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported output extension %q", filepath.Ext(path))
	}
	slog.Info("Wrote mesh", "path", path, "meshes", len(meshes))
	return nil
}

func printSummary(m *vmesh.Mesh) {
	fmt.Printf("Name           : %s\n", m.Name)
	fmt.Printf("Primitive type : %s\n", m.PrimitiveType())
	fmt.Printf("Index type     : %s\n", m.IndexType())
	fmt.Printf("Vertex count   : %d\n", m.VertexCount())
	fmt.Printf("Index count    : %d\n", m.IndexCount())
	fmt.Printf("Vertex stride  : %d\n", m.Stride())
	if box, ok := m.BoundingBox(); ok {
		fmt.Printf("Bounding box   : %v - %v\n", box.Min, box.Max)
	}
	fmt.Println("Vertex attributes:")
	for _, a := range m.VertexLayout().Attributes() {
		fmt.Printf("  %-16s %-8s x%d offset %d\n", a.Semantic(), a.Type(), a.Cardinality(), a.Offset())
	}
}
