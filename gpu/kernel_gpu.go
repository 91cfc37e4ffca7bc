package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"

	"github.com/cellsort/automaton3d"
	"github.com/cellsort/automaton3d/gpu/shaders"
	"github.com/cogentcore/webgpu/wgpu"
)

// uniformParams mirrors update.wgsl's Params struct.
type uniformParams struct {
	size       uint32
	numSpecies uint32
	_pad0      uint32
	_pad1      uint32
}

// band mirrors update.wgsl's Band struct (six 4-byte fields plus two
// padding words, 32 bytes per record).
type band struct {
	promoteStart     uint32
	promoteCount     uint32
	demoteStart      uint32
	demoteCount      uint32
	promoteInfluence float32
	demoteInfluence  float32
	_pad0            uint32
	_pad1            uint32
}

// Kernel is a Capability backed by a WGSL compute dispatch instead of
// goroutines. Labels are kept packed four-to-a-u32 on the GPU and
// mirrored in a CPU-side byte buffer for Get/Set, uploaded lazily
// before the next RunIteration.
//
// Kernel does not implement automaton3d.Configurable: reconfiguring the
// species rule means re-deriving the offset/band buffers and their
// bind-group layout, which this backend only does at construction. A
// batch sweep driving this backend fails its type assertion against
// Configurable rather than silently keeping a stale rule.
type Kernel struct {
	dev *Device

	n          int
	numSpecies int
	config     automaton3d.SpeciesConfig
	tables     *automaton3d.NeighbourTables

	pipeline  *wgpu.ComputePipeline
	bindGroup *wgpu.BindGroup

	paramsBuf  *wgpu.Buffer
	prevBuf    *wgpu.Buffer
	nextBuf    *wgpu.Buffer
	offsetsBuf *wgpu.Buffer
	bandsBuf   *wgpu.Buffer

	shadow    []byte // n^3 labels, CPU mirror
	iteration int
	history   *automaton3d.OrderParameter
}

var _ automaton3d.Capability = (*Kernel)(nil)

// NewKernel builds a GPU-backed Capability of edge length n for the
// given species configuration, uploading its NeighbourTables as the
// offsets/bands storage buffers once.
func NewKernel(dev *Device, n int, config automaton3d.SpeciesConfig) (*Kernel, error) {
	tables, err := automaton3d.NewNeighbourTables(config)
	if err != nil {
		return nil, err
	}

	k := &Kernel{
		dev:        dev,
		n:          n,
		numSpecies: config.NumSpecies(),
		config:     config,
		tables:     tables,
		shadow:     make([]byte, n*n*n),
		history:    automaton3d.NewOrderParameter(config.NumSpecies()),
	}

	if err := k.buildPipeline(); err != nil {
		return nil, err
	}
	if err := k.uploadBands(); err != nil {
		return nil, err
	}
	if err := k.allocateGridBuffers(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Kernel) buildPipeline() error {
	shaderModule, err := k.dev.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "automaton3d update",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.UpdateWGSL},
	})
	if err != nil {
		return fmt.Errorf("gpu: compiling update shader: %w", err)
	}
	defer shaderModule.Release()

	k.pipeline, err = k.dev.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "automaton3d update pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shaderModule,
			EntryPoint: "update_voxel",
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: creating update pipeline: %w", err)
	}

	k.paramsBuf, err = k.dev.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "automaton3d params",
		Size:  16,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	return err
}

// uploadBands flattens NeighbourTables into the flat offsets buffer and
// per-species (start,count) Band records, the GPU-side equivalent of
// the CPU Kernel's promote/demote offsetLists.
func (k *Kernel) uploadBands() error {
	var offsets []int32
	bands := make([]band, k.numSpecies)

	for s := 1; s <= k.numSpecies; s++ {
		promote := k.tables.PromoteOffsets(s)
		demote := k.tables.DemoteOffsets(s)

		b := band{promoteStart: uint32(len(offsets) / 3)}
		for i := 0; i < promote.Len(); i++ {
			o := promote.OffsetAt(i)
			offsets = append(offsets, int32(o.DX), int32(o.DY), int32(o.DZ))
		}
		b.promoteCount = uint32(promote.Len())

		b.demoteStart = uint32(len(offsets) / 3)
		for i := 0; i < demote.Len(); i++ {
			o := demote.OffsetAt(i)
			offsets = append(offsets, int32(o.DX), int32(o.DY), int32(o.DZ))
		}
		b.demoteCount = uint32(demote.Len())

		group := k.config.Groups[s-1]
		b.promoteInfluence = group.Promote.Influence
		b.demoteInfluence = group.Demote.Influence

		bands[s-1] = b
	}

	offsetBytes := make([]byte, len(offsets)*4)
	for i, v := range offsets {
		binary.LittleEndian.PutUint32(offsetBytes[i*4:], uint32(v))
	}

	var err error
	k.offsetsBuf, err = k.dev.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "automaton3d offsets",
		Size:  uint64(max(len(offsetBytes), 16)),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: allocating offsets buffer: %w", err)
	}
	if len(offsetBytes) > 0 {
		k.dev.Queue.WriteBuffer(k.offsetsBuf, 0, offsetBytes)
	}

	bandBytes := make([]byte, len(bands)*32)
	for i, b := range bands {
		off := i * 32
		binary.LittleEndian.PutUint32(bandBytes[off:], b.promoteStart)
		binary.LittleEndian.PutUint32(bandBytes[off+4:], b.promoteCount)
		binary.LittleEndian.PutUint32(bandBytes[off+8:], b.demoteStart)
		binary.LittleEndian.PutUint32(bandBytes[off+12:], b.demoteCount)
		binary.LittleEndian.PutUint32(bandBytes[off+16:], uint32Bits(b.promoteInfluence))
		binary.LittleEndian.PutUint32(bandBytes[off+20:], uint32Bits(b.demoteInfluence))
	}
	k.bandsBuf, err = k.dev.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "automaton3d bands",
		Size:  uint64(max(len(bandBytes), 32)),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: allocating bands buffer: %w", err)
	}
	if len(bandBytes) > 0 {
		k.dev.Queue.WriteBuffer(k.bandsBuf, 0, bandBytes)
	}
	return nil
}

func (k *Kernel) allocateGridBuffers() error {
	words := (k.n*k.n*k.n + 3) / 4
	size := uint64(max(words*4, 16))

	var err error
	k.prevBuf, err = k.dev.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "automaton3d prev",
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: allocating prev buffer: %w", err)
	}
	k.nextBuf, err = k.dev.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "automaton3d next",
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return fmt.Errorf("gpu: allocating next buffer: %w", err)
	}

	bgl := k.pipeline.GetBindGroupLayout(0)
	k.bindGroup, err = k.dev.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "automaton3d update bind group",
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: k.paramsBuf, Size: 16},
			{Binding: 1, Buffer: k.prevBuf, Size: size},
			{Binding: 2, Buffer: k.nextBuf, Size: size},
			{Binding: 3, Buffer: k.offsetsBuf},
			{Binding: 4, Buffer: k.bandsBuf},
		},
	})
	return err
}

// Size returns N.
func (k *Kernel) Size() int { return k.n }

func (k *Kernel) index(x, y, z int) int {
	return (z*k.n+y)*k.n + x
}

// Get reads the CPU-side shadow, which always reflects the GPU state as
// of the last completed RunIteration or Set.
func (k *Kernel) Get(x, y, z int) byte {
	return k.shadow[k.index(x, y, z)]
}

// Set writes through the shadow buffer; the GPU-side buffer is
// refreshed lazily on the next RunIteration.
func (k *Kernel) Set(x, y, z int, val byte) {
	if int(val) > k.numSpecies {
		panic(fmt.Sprintf("gpu: species label %d exceeds K=%d", val, k.numSpecies))
	}
	k.shadow[k.index(x, y, z)] = val
}

// ClearAll zeroes the shadow buffer and resets iteration/history.
func (k *Kernel) ClearAll() {
	for i := range k.shadow {
		k.shadow[i] = 0
	}
	k.iteration = 0
	k.history.Reset()
}

// SpreadRandom fills the shadow buffer uniformly, exactly like the CPU
// kernel's SpreadRandom, then records the seeded state's order parameter.
func (k *Kernel) SpreadRandom(rng *rand.Rand, chemCount int) error {
	if chemCount < 1 || chemCount > k.numSpecies+1 {
		return fmt.Errorf("gpu: chem_count %d out of range [1, %d]", chemCount, k.numSpecies+1)
	}
	// Same x, y, z visiting order as the CPU kernel, so equal seeds give
	// equal grids.
	for x := 0; x < k.n; x++ {
		for y := 0; y < k.n; y++ {
			for z := 0; z < k.n; z++ {
				k.shadow[k.index(x, y, z)] = byte(rng.Intn(chemCount))
			}
		}
	}
	k.iteration = 0
	k.history.Reset()
	k.history.Append(k.computeOrderParameter())
	return nil
}

// RunIteration uploads the shadow buffer, dispatches one compute pass
// over the whole grid, maps the result back down, and records the new
// order parameter — the GPU analogue of computeNextGeneration's
// goroutine slab partition.
func (k *Kernel) RunIteration() error {
	packed := packLabels(k.shadow)
	k.dev.Queue.WriteBuffer(k.prevBuf, 0, packed)
	k.dev.Queue.WriteBuffer(k.paramsBuf, 0, packParams(uniformParams{
		size:       uint32(k.n),
		numSpecies: uint32(k.numSpecies),
	}))

	encoder, err := k.dev.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("gpu: creating command encoder: %w", err)
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(k.pipeline)
	pass.SetBindGroup(0, k.bindGroup, nil)
	groups := uint32((k.n + 3) / 4)
	pass.DispatchWorkgroups(groups, groups, groups)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("gpu: finishing command buffer: %w", err)
	}
	k.dev.Queue.Submit(cmd)

	if err := k.readback(); err != nil {
		return err
	}

	k.iteration++
	k.history.Append(k.computeOrderParameter())
	return nil
}

func (k *Kernel) readback() error {
	words := (k.n*k.n*k.n + 3) / 4
	size := uint64(words * 4)

	done := make(chan wgpu.BufferMapAsyncStatus, 1)
	k.nextBuf.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		done <- status
	})
	for {
		k.dev.Device.Poll(true, nil)
		select {
		case status := <-done:
			if status != wgpu.BufferMapAsyncStatusSuccess {
				return fmt.Errorf("gpu: mapping next buffer: status %d", status)
			}
			data := k.nextBuf.GetMappedRange(0, uint(size))
			unpackLabels(data, k.shadow)
			k.nextBuf.Unmap()
			return nil
		default:
		}
	}
}

// IterationCount returns the number of completed RunIteration calls.
func (k *Kernel) IterationCount() int { return k.iteration }

// SetIterationCount overrides the counter, e.g. after ImportFrom-style
// external bookkeeping.
func (k *Kernel) SetIterationCount(n int) { k.iteration = n }

// OrderParameters returns the per-species series, matching the CPU
// Kernel's method of the same name.
func (k *Kernel) OrderParameters() [][]float32 { return k.history.PerSpeciesSeries() }

// LastOrderParameter returns the most recently recorded ε vector.
func (k *Kernel) LastOrderParameter() []float32 { return k.history.Last() }

func (k *Kernel) computeOrderParameter() []float32 {
	grid := automaton3d.NewGrid(k.n)
	for z := 0; z < k.n; z++ {
		for y := 0; y < k.n; y++ {
			for x := 0; x < k.n; x++ {
				grid.Set(x, y, z, k.shadow[k.index(x, y, z)])
			}
		}
	}
	return automaton3d.Compute(grid, k.numSpecies)
}

// Close releases the pipeline, bind group, and buffers held by k. dev is
// not released; it may be shared by multiple Kernels.
func (k *Kernel) Close() {
	k.pipeline.Release()
	k.bindGroup.Release()
	k.paramsBuf.Release()
	k.prevBuf.Release()
	k.nextBuf.Release()
	k.offsetsBuf.Release()
	k.bandsBuf.Release()
}

func packLabels(shadow []byte) []byte {
	words := (len(shadow) + 3) / 4
	out := make([]byte, words*4)
	copy(out, shadow)
	return out
}

func unpackLabels(packed []byte, shadow []byte) {
	copy(shadow, packed[:len(shadow)])
}

func packParams(p uniformParams) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint32(out[0:], p.size)
	binary.LittleEndian.PutUint32(out[4:], p.numSpecies)
	return out
}

func uint32Bits(f float32) uint32 {
	return math.Float32bits(f)
}
