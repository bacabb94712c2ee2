//go:build stress

package test

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/gostonefire/flowlookup"
	"github.com/gostonefire/flowlookup/hashfunc"
	"github.com/gostonefire/flowlookup/interfaces"
	"github.com/gostonefire/flowlookup/platform"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

// tupleLength - Source and destination address, ports and protocol
const tupleLength = 13

func bytesToStrings(d []byte) []string {
	r := make([]string, len(d))
	for i, v := range d {
		r[i] = strconv.Itoa(int(v))
	}
	return r
}

func stringsToBytes(d []string) ([]byte, error) {
	r := make([]byte, len(d))
	for i, v := range d {
		b, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		r[i] = uint8(b)
	}
	return r, nil
}

func tupleToParams(d []byte) hashfunc.SelectorParams {
	return hashfunc.SelectorParams{
		Flags:   hashfunc.SelectIPv4,
		IPProto: d[12],
		SrcIP:   d[0:4],
		DstIP:   d[4:8],
		SrcPort: uint16(d[8])<<8 | uint16(d[9]),
		DstPort: uint16(d[10])<<8 | uint16(d[11]),
	}
}

func createAndStoreTestdata(amount int, fileName string) error {
	data := make([]byte, tupleLength)

	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func(f *os.File) { _ = f.Close() }(f)

	for i := 0; i < amount; i++ {
		rand.Read(data)
		line := strings.Join(bytesToStrings(data), ",")
		_, err = fmt.Fprintln(f, line)
		if err != nil {
			return err
		}
	}

	return nil
}

// flowSet - Flow records added from one test data file
type flowSet struct {
	records []*flowlookup.RecordDescriptor
	next    uint32
}

// forEachTuple - Calls fn with every tuple of the test data file
func forEachTuple(fileName string, fn func(i int, tuple []byte) error) error {
	f, err := os.OpenFile(fileName, os.O_RDONLY, 0644)
	if err != nil {
		return err
	}
	defer func(f *os.File) { _ = f.Close() }(f)

	var line string
	fr := bufio.NewReader(f)

	for i := 0; ; i++ {
		line, err = fr.ReadString('\n')
		if errors.Is(err, io.EOF) {
			break
		}
		line = strings.TrimRight(line, "\n\r")
		data, err := stringsToBytes(strings.Split(line, ","))
		if err != nil {
			return err
		}
		if err = fn(i, data); err != nil {
			return err
		}
	}

	return nil
}

func addTestdata(fileName string, engine *flowlookup.Engine, set *flowSet) error {
	return forEachTuple(fileName, func(i int, tuple []byte) error {
		id, err := engine.FlowIDCompute(0, tupleToParams(tuple))
		if err != nil {
			return err
		}

		rd := &flowlookup.RecordDescriptor{
			Buffer:  platform.NewMemBuffer(flowlookup.FlowRecordWordCount() * 4),
			Address: interfaces.Address{Addr: set.next},
		}
		set.next += uint32(flowlookup.FlowRecordWordCount() * 4)

		if err = engine.FlowRecordAdd(0, rd, flowlookup.FlowRecordInput{HashID: id, SWReference: uint32(i)}); err != nil {
			return err
		}
		set.records = append(set.records, rd)

		return nil
	})
}

func readTestdata(engine *flowlookup.Engine, set *flowSet) error {
	for i, rd := range set.records {
		if _, err := engine.FlowRecordRead(0, rd); err != nil {
			return err
		}
		if ref := rd.Buffer.Read32(8); ref != uint32(i) {
			return fmt.Errorf("record %d holds software reference %d", i, ref)
		}
	}
	return nil
}

func removeTestdata(engine *flowlookup.Engine, set *flowSet) error {
	for _, rd := range set.records {
		if err := engine.FlowRecordRemove(0, rd); err != nil {
			return err
		}
	}
	set.records = nil
	return nil
}

type TestCaseStressTest struct {
	name      string
	size      flowlookup.TableSize
	overflow  int
	nTestdata int
}

func TestStress(t *testing.T) {
	t.Run("stress tests for table geometries", func(t *testing.T) {
		// Prepare
		tests := []TestCaseStressTest{
			{name: "Sparse", size: flowlookup.TableSize256K, overflow: 16384, nTestdata: 100000},
			{name: "Dense", size: flowlookup.TableSize16K, overflow: 32768, nTestdata: 40000},
		}

		for _, test := range tests {
			t.Run(fmt.Sprintf("handles lots of adds and removes for %s", test.name), func(t *testing.T) {
				// Prepare test data
				rand.Seed(123)
				err := createAndStoreTestdata(test.nTestdata, "testdata_1.txt")
				assert.NoError(t, err, "create testdata 1")
				err = createAndStoreTestdata(test.nTestdata, "testdata_2.txt")
				assert.NoError(t, err, "create testdata 2")
				err = createAndStoreTestdata(test.nTestdata, "testdata_3.txt")
				assert.NoError(t, err, "create testdata 3")

				// Prepare engine
				engine := newStressEngine(t, test)
				sets := []*flowSet{{next: 0x10000000}, {next: 0x20000000}, {next: 0x30000000}}

				// Add first two sets of test data
				err = addTestdata("testdata_1.txt", engine, sets[0])
				assert.NoError(t, err, "add testdata 1")
				err = addTestdata("testdata_2.txt", engine, sets[1])
				assert.NoError(t, err, "add testdata 2")
				assert.NoError(t, engine.Check(0), "consistent after adds")

				// Remove the first set and add the third
				err = removeTestdata(engine, sets[0])
				assert.NoError(t, err, "remove testdata 1")
				err = addTestdata("testdata_3.txt", engine, sets[2])
				assert.NoError(t, err, "add testdata 3")

				// Read what is left
				err = readTestdata(engine, sets[1])
				assert.NoError(t, err, "read testdata 2")
				err = readTestdata(engine, sets[2])
				assert.NoError(t, err, "read testdata 3")

				stats, err := engine.Stats(0)
				assert.NoError(t, err, "gets stats")
				assert.Equal(t, 2*test.nTestdata, stats.Records, "records left")
				assert.Equal(t, test.overflow, stats.OverflowBuckets+stats.FreeOverflowBuckets, "no overflow bucket lost")

				// Remove everything
				err = removeTestdata(engine, sets[1])
				assert.NoError(t, err, "remove testdata 2")
				err = removeTestdata(engine, sets[2])
				assert.NoError(t, err, "remove testdata 3")

				stats, err = engine.Stats(0)
				assert.NoError(t, err, "gets stats")
				assert.Equal(t, 0, stats.Records, "empty table")
				assert.Equal(t, test.overflow, stats.FreeOverflowBuckets, "all overflow buckets free")
				assert.NoError(t, engine.Check(0), "consistent when empty")

				// Clean up
				for _, f := range []string{"testdata_1.txt", "testdata_2.txt", "testdata_3.txt"} {
					assert.NoError(t, os.Remove(f), "removes %s", f)
				}
			})
		}
	})
}

func newStressEngine(t *testing.T, tc TestCaseStressTest) *flowlookup.Engine {
	logger, _ := logtest.NewNullLogger()
	cfg := flowlookup.DefaultConfig()
	cfg.Logger = logger
	cfg.QuiescenceDelay = 64

	device := platform.NewMemDevice()
	device.SetIV([4]uint32{0x9E3779B9, 0x7F4A7C15, 0xF39CC060, 0x5CEDC834})

	engine, err := flowlookup.NewEngine(device, cfg)
	assert.NoError(t, err, "create engine")

	count := tc.size.Buckets() + tc.overflow
	err = engine.HashTableInstall(0, flowlookup.HashTable{
		Buffer:          platform.NewMemBuffer(count * flowlookup.BucketWordCount() * 4),
		Address:         interfaces.Address{Addr: 0x40000000},
		Size:            tc.size,
		DescriptorCount: count,
	}, false, true)
	assert.NoError(t, err, "install table")

	return engine
}
