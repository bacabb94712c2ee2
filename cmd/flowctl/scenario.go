package main

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"

	"github.com/gostonefire/flowlookup"
	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/gostonefire/flowlookup/hashfunc"
	"github.com/gostonefire/flowlookup/interfaces"
	"github.com/gostonefire/flowlookup/platform"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// Scenario step operations
const (
	opAddFlow      = "add-flow"
	opAddTransform = "add-transform"
	opRead         = "read"
	opRemove       = "remove"
	opFlowID       = "flow-id"
)

// scenario - A replayable sequence of engine calls
//   - IV is the flow hash initialization vector installed in the device
//   - Base is the record base address
//   - Steps are run in order
type scenario struct {
	IV    [4]uint32 `yaml:"iv"`
	Base  uint32    `yaml:"base"`
	Steps []step    `yaml:"steps"`
}

// step - One engine call, records are referred to by name
//   - Transform names the transform record referenced by an add-flow step
//   - Expect names the error category the step must fail with
type step struct {
	Op          string     `yaml:"op"`
	Name        string     `yaml:"name"`
	Address     uint32     `yaml:"address"`
	HashID      []uint32   `yaml:"hash-id"`
	Selectors   *selectors `yaml:"selectors"`
	Flags       uint32     `yaml:"flags"`
	SWReference uint32     `yaml:"sw-reference"`
	Transform   string     `yaml:"transform"`
	Large       bool       `yaml:"large"`
	Expect      string     `yaml:"expect"`
}

// selectors - Packet fields hashed into a flow hash ID
type selectors struct {
	Proto      uint8   `yaml:"proto"`
	Src        string  `yaml:"src"`
	Dst        string  `yaml:"dst"`
	SrcPort    uint16  `yaml:"src-port"`
	DstPort    uint16  `yaml:"dst-port"`
	SPI        uint32  `yaml:"spi"`
	Epoch      uint16  `yaml:"epoch"`
	CustomID   *uint16 `yaml:"custom-id"`
	ESPWithSrc bool    `yaml:"esp-with-src"`
}

// expectations - Error categories a step can expect
var expectations = map[string]error{
	"argument":      flowerr.ArgumentError{},
	"internal":      flowerr.InternalError{},
	"out-of-memory": flowerr.OutOfMemory{},
	"unsupported":   flowerr.UnsupportedFeature{},
	"illegal-state": flowerr.IllegalInState{},
}

// loadScenario - Reads a scenario file
func loadScenario(path string) (sc *scenario, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	return parseScenario(data)
}

// parseScenario - Decodes a YAML scenario and checks its steps
func parseScenario(data []byte) (sc *scenario, err error) {
	sc = &scenario{}
	if err = yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	for i, s := range sc.Steps {
		switch s.Op {
		case opAddFlow, opAddTransform, opRead, opRemove, opFlowID:
		default:
			return nil, fmt.Errorf("step %d: unknown operation %q", i+1, s.Op)
		}
		if s.Name == "" {
			return nil, fmt.Errorf("step %d: a record name is required", i+1)
		}
		if _, ok := expectations[s.Expect]; s.Expect != "" && !ok {
			return nil, fmt.Errorf("step %d: unknown expected error %q", i+1, s.Expect)
		}
		if s.HashID != nil && len(s.HashID) != 4 {
			return nil, fmt.Errorf("step %d: hash-id needs 4 words", i+1)
		}
	}

	return
}

// simOptions - Geometry and collaborators of a simulation
type simOptions struct {
	size     flowlookup.TableSize
	overflow int
	htFile   string
	config   flowlookup.Config
}

// simulation - An engine on an emulated device with table 0 installed
type simulation struct {
	engine  *flowlookup.Engine
	device  *platform.MemDevice
	ht      interfaces.DMABuffer
	records map[string]*flowlookup.RecordDescriptor
	out     io.Writer
	close   func() error
}

// newSimulation - Creates the device, the hash table memory and the engine, and installs table 0
func newSimulation(opts simOptions, out io.Writer) (sim *simulation, err error) {
	sim = &simulation{
		device:  platform.NewMemDevice(),
		records: make(map[string]*flowlookup.RecordDescriptor),
		out:     out,
		close:   func() error { return nil },
	}

	count := opts.size.Buckets() + opts.overflow
	byteSize := count * flowlookup.BucketWordCount() * 4

	if opts.htFile != "" {
		var mb *platform.MappedBuffer
		if mb, err = platform.OpenMappedBuffer(opts.htFile, byteSize); err != nil {
			return nil, err
		}
		sim.ht = mb
		sim.close = func() error {
			if err := mb.Err(); err != nil {
				_ = mb.Close()
				return err
			}
			return mb.Close()
		}
	} else {
		sim.ht = platform.NewMemBuffer(byteSize)
	}

	if sim.engine, err = flowlookup.NewEngine(sim.device, opts.config); err != nil {
		_ = sim.close()
		return nil, err
	}

	err = sim.engine.HashTableInstall(0, flowlookup.HashTable{
		Buffer:          sim.ht,
		Address:         interfaces.Address{Addr: 0x40000000},
		Size:            opts.size,
		DescriptorCount: count,
	}, true, true)
	if err != nil {
		_ = sim.close()
		return nil, err
	}

	return
}

// run - Replays the scenario steps
func (S *simulation) run(sc *scenario) (err error) {
	S.device.SetIV(sc.IV)
	if err = S.engine.BaseAddressSet(0, interfaces.Address{Addr: sc.Base}); err != nil {
		return
	}

	for i, s := range sc.Steps {
		serr := S.step(s)
		if s.Expect != "" {
			if !errors.Is(serr, expectations[s.Expect]) {
				return fmt.Errorf("step %d (%s %s): expected %s error, got %v", i+1, s.Op, s.Name, s.Expect, serr)
			}
			fmt.Fprintf(S.out, "step %d: %s %s failed as expected: %v\n", i+1, s.Op, s.Name, serr)
			continue
		}
		if serr != nil {
			return fmt.Errorf("step %d (%s %s): %w", i+1, s.Op, s.Name, serr)
		}
	}

	return
}

// step - Runs one scenario step
func (S *simulation) step(s step) (err error) {
	switch s.Op {
	case opFlowID:
		var id hashfunc.FlowID
		if id, err = S.hashID(s); err == nil {
			fmt.Fprintf(S.out, "%s: flow ID %08x\n", s.Name, id.Word32)
		}

	case opAddFlow:
		var id hashfunc.FlowID
		if id, err = S.hashID(s); err != nil {
			return
		}
		in := flowlookup.FlowRecordInput{HashID: id, Flags: s.Flags, SWReference: s.SWReference, Large: s.Large}
		if s.Transform != "" {
			xform, ok := S.records[s.Transform]
			if !ok {
				return flowerr.NewArgumentError("unknown transform record %q", s.Transform)
			}
			in.TransformAddress = xform.Address
		}
		rd := S.record(s.Name, s.Address, flowlookup.FlowRecordWordCount())
		err = S.engine.FlowRecordAdd(0, rd, in)

	case opAddTransform:
		var id hashfunc.FlowID
		if id, err = S.hashID(s); err != nil {
			return
		}
		words := flowlookup.TransformRecordWordCount()
		if s.Large {
			words = flowlookup.TransformRecordLargeWordCount()
		}
		rd := S.record(s.Name, s.Address, words)
		err = S.engine.TransformRecordAdd(0, rd, flowlookup.TransformRecordInput{HashID: id, Large: s.Large})

	case opRead:
		rd, ok := S.records[s.Name]
		if !ok {
			return flowerr.NewArgumentError("unknown record %q", s.Name)
		}
		if rd.Type() == flowlookup.RecordFlow {
			var out flowlookup.FlowRecordOutput
			if out, err = S.engine.FlowRecordRead(0, rd); err == nil {
				fmt.Fprintf(S.out, "%s: packets %d octets %d last %d\n", s.Name, out.Packets, out.Octets, out.LastTime)
			}
			return
		}
		var out flowlookup.TransformRecordOutput
		if out, err = S.engine.TransformRecordRead(0, rd); err == nil {
			fmt.Fprintf(S.out, "%s: packets %d octets %d last %d seq %d\n", s.Name, out.Packets, out.Octets, out.LastTime, out.SequenceNumber)
		}

	case opRemove:
		rd, ok := S.records[s.Name]
		if !ok {
			return flowerr.NewArgumentError("unknown record %q", s.Name)
		}
		if rd.Type() == flowlookup.RecordFlow {
			err = S.engine.FlowRecordRemove(0, rd)
		} else {
			err = S.engine.TransformRecordRemove(0, rd)
		}
	}

	return
}

// record - Returns the named record descriptor, creating it with its memory on first use
func (S *simulation) record(name string, address uint32, words int) *flowlookup.RecordDescriptor {
	if rd, ok := S.records[name]; ok {
		return rd
	}
	rd := &flowlookup.RecordDescriptor{
		Buffer:  platform.NewMemBuffer(words * 4),
		Address: interfaces.Address{Addr: address},
	}
	S.records[name] = rd
	return rd
}

// hashID - Returns the literal hash ID of the step or computes it from its selectors
func (S *simulation) hashID(s step) (id hashfunc.FlowID, err error) {
	if s.Selectors == nil {
		if s.HashID == nil {
			err = flowerr.NewArgumentError("step needs hash-id or selectors")
			return
		}
		copy(id.Word32[:], s.HashID)
		return
	}

	params, err := s.Selectors.params()
	if err != nil {
		return
	}
	return S.engine.FlowIDCompute(0, params)
}

// params - Converts the selectors to hash parameters
func (S *selectors) params() (params hashfunc.SelectorParams, err error) {
	dst, err := netip.ParseAddr(S.Dst)
	if err != nil {
		err = flowerr.NewArgumentError("bad destination address %q", S.Dst)
		return
	}
	params = hashfunc.SelectorParams{
		IPProto: S.Proto,
		SrcPort: S.SrcPort,
		DstPort: S.DstPort,
		SPI:     S.SPI,
		Epoch:   S.Epoch,
		DstIP:   dst.AsSlice(),
	}

	if dst.Is4() {
		params.Flags |= hashfunc.SelectIPv4
	} else {
		params.Flags |= hashfunc.SelectIPv6
	}
	if S.ESPWithSrc {
		params.Flags |= hashfunc.ESPWithSrc
	}
	if S.CustomID != nil {
		params.Flags |= hashfunc.SelectCustom
		params.CustomID = *S.CustomID
	}

	if S.Src != "" {
		src, perr := netip.ParseAddr(S.Src)
		if perr != nil {
			err = flowerr.NewArgumentError("bad source address %q", S.Src)
			return
		}
		params.SrcIP = src.AsSlice()
	}

	return
}

// setupSimulation - Builds a simulation from the persistent flags and runs the scenario file
func setupSimulation(scenarioPath, htFile string, reg prometheus.Registerer, out io.Writer) (sim *simulation, err error) {
	logger, err := newLogger()
	if err != nil {
		return
	}
	size, err := tableSize()
	if err != nil {
		return
	}
	sc, err := loadScenario(scenarioPath)
	if err != nil {
		return
	}

	sim, err = newSimulation(simOptions{
		size:     size,
		overflow: vp.GetInt(flagOverflow),
		htFile:   htFile,
		config:   engineConfig(logger.WithField("scenario", scenarioPath), reg),
	}, out)
	if err != nil {
		return
	}

	if err = sim.run(sc); err != nil {
		_ = sim.close()
		return nil, err
	}

	return
}
