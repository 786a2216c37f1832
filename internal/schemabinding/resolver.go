// Package schemabinding locates a compiled protobuf descriptor set and
// resolves IR symbols against it. Descriptor sets are the
// standard `protoc --descriptor_set_out` artifact: a serialized
// descriptorpb.FileDescriptorSet, indexed with protodesc.
package schemabinding

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/pipelineframework/corepipe/internal/errs"
	"github.com/pipelineframework/corepipe/pkg/httpclient"
)

// knownFilenames is tried, in order, when an explicit directory option
// is supplied without a specific filename.
var knownFilenames = []string{"descriptor_set.bin", "schema.pb", "service.desc"}

// maxSiblingDepth bounds the sibling walk so resolution never scans an
// unrelated, arbitrarily large directory tree.
const maxSiblingDepth = 3

// Options configures where Resolve looks for a descriptor set.
type Options struct {
	ExplicitFile     string   // (a) explicit file option
	ExplicitDir      string   // (b) explicit directory option, tried with knownFilenames
	DescriptorURL    string   // (c) remote descriptor set fetched over HTTP, e.g. a schema registry endpoint
	ModuleDir        string   // (d) current module default path (ModuleDir/descriptor_set.bin)
	SiblingCommonDir string   // (e) sibling "common" module, e.g. ../common
	SiblingsRoot     string   // (f) root to bounded-depth-walk for further siblings
	RequiredServices []string // when non-empty, the returned set must declare at least one of these

	// HTTPClient fetches DescriptorURL. A default client (retry,
	// response decoding) is constructed when nil.
	HTTPClient *httpclient.Client
}

// Bound is a resolved descriptor set ready for symbol binding.
type Bound struct {
	Path  string
	Files *protoregistryFiles
}

// protoregistryFiles wraps a protodesc-built FileDescriptor set so
// callers can look up messages/services by fully qualified name.
type protoregistryFiles struct {
	byFile map[string]protoreflect.FileDescriptor
}

func (f *protoregistryFiles) DeclaresService(name string) bool {
	for _, fd := range f.byFile {
		services := fd.Services()
		for i := 0; i < services.Len(); i++ {
			if string(services.Get(i).FullName()) == name || string(services.Get(i).Name()) == name {
				return true
			}
		}
	}
	return false
}

func (f *protoregistryFiles) FindMessage(name protoreflect.FullName) (protoreflect.MessageDescriptor, bool) {
	for _, fd := range f.byFile {
		if md := fd.Messages().ByName(name.Name()); md != nil {
			return md, true
		}
	}
	return nil, false
}

// candidateSource is one tier of the resolution order: a label for the
// inspected-candidates diagnostic, plus a loader to attempt it.
type candidateSource struct {
	label string
	load  func() (*Bound, error)
}

// Resolve implements the C5 multi-tier resolution order. It returns a
// BindingFailureError (mapped to NotFound semantics) listing every
// inspected candidate when nothing matches.
func Resolve(ctx context.Context, opts Options) (*Bound, error) {
	var inspected []string

	sources := buildSources(ctx, opts)
	var firstReadable *Bound

	for _, src := range sources {
		inspected = append(inspected, src.label)
		bound, err := src.load()
		if err != nil {
			continue
		}
		if firstReadable == nil {
			firstReadable = bound
		}
		if len(opts.RequiredServices) == 0 {
			return bound, nil
		}
		for _, svc := range opts.RequiredServices {
			if bound.Files.DeclaresService(svc) {
				return bound, nil
			}
		}
	}

	if len(opts.RequiredServices) > 0 && firstReadable != nil {
		return nil, errs.NewBindingFailure(fmt.Sprintf("required services %v", opts.RequiredServices), inspected)
	}
	if firstReadable != nil {
		return firstReadable, nil
	}

	return nil, errs.NewBindingFailure("descriptor set", inspected)
}

func buildSources(ctx context.Context, opts Options) []candidateSource {
	var sources []candidateSource

	fileSource := func(path string) candidateSource {
		return candidateSource{label: path, load: func() (*Bound, error) { return loadDescriptorSet(path) }}
	}

	if opts.ExplicitFile != "" {
		sources = append(sources, fileSource(opts.ExplicitFile))
	}
	if opts.ExplicitDir != "" {
		for _, name := range knownFilenames {
			sources = append(sources, fileSource(filepath.Join(opts.ExplicitDir, name)))
		}
	}
	if opts.DescriptorURL != "" {
		client := opts.HTTPClient
		if client == nil {
			client = httpclient.NewWithDefaults()
		}
		url := opts.DescriptorURL
		sources = append(sources, candidateSource{
			label: url,
			load:  func() (*Bound, error) { return fetchDescriptorSet(ctx, client, url) },
		})
	}
	if opts.ModuleDir != "" {
		sources = append(sources, fileSource(filepath.Join(opts.ModuleDir, "descriptor_set.bin")))
	}
	if opts.SiblingCommonDir != "" {
		sources = append(sources, fileSource(filepath.Join(opts.SiblingCommonDir, "descriptor_set.bin")))
	}
	if opts.SiblingsRoot != "" {
		for _, path := range walkSiblings(opts.SiblingsRoot, maxSiblingDepth) {
			sources = append(sources, fileSource(path))
		}
	}

	return sources
}

func walkSiblings(root string, maxDepth int) []string {
	var found []string
	var walk func(dir string, depth int)
	walk = func(dir string, depth int) {
		if depth > maxDepth {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			sub := filepath.Join(dir, e.Name())
			candidate := filepath.Join(sub, "descriptor_set.bin")
			if _, err := os.Stat(candidate); err == nil {
				found = append(found, candidate)
			}
			walk(sub, depth+1)
		}
	}
	walk(root, 0)
	return found
}

func loadDescriptorSet(path string) (*Bound, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseDescriptorSet(path, data)
}

// fetchDescriptorSet retrieves a serialized FileDescriptorSet from a
// remote schema registry endpoint over HTTP, reusing the resilient
// outbound client (retry, decompression) for the
// fetch the same way any other remote schema source would be reached.
func fetchDescriptorSet(ctx context.Context, client *httpclient.Client, url string) (*Bound, error) {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching descriptor set from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching descriptor set from %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor set from %s: %w", url, err)
	}
	return parseDescriptorSet(url, data)
}

func parseDescriptorSet(path string, data []byte) (*Bound, error) {
	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &set); err != nil {
		return nil, err
	}

	files := &protoregistryFiles{byFile: make(map[string]protoreflect.FileDescriptor)}
	opts := protodesc.FileOptions{AllowUnresolvable: true}
	for _, fdProto := range set.File {
		fd, err := opts.New(fdProto, nil)
		if err != nil {
			continue
		}
		files.byFile[fdProto.GetName()] = fd
	}

	return &Bound{Path: path, Files: files}, nil
}
