package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"log/slog"

	"github.com/soypat/saleae"
)

// Optional flags.
var (
	timingsOutput string
	omitData      bool
	omitCommands  bool
	nibbleGap     float64
)

func main() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "lcdanalyze - Process binary Saleae digital data files corresponding to HD44780 4-bit bus transactions.\n\tUsage:\n")
		flag.PrintDefaults()
	}
	rs := flag.String("f-rs", "digital_0.bin", "Input filename: register select (RS) line.")
	en := flag.String("f-e", "digital_1.bin", "Input filename: enable (E) line.")
	var data [4]*string
	for i := range data {
		data[i] = flag.String(fmt.Sprintf("f-d%d", i+4), fmt.Sprintf("digital_%d.bin", i+2),
			fmt.Sprintf("Input filename: data line D%d.", i+4))
	}
	output := flag.String("o-cmd", "commands.txt", "Output filename of decoded HD44780 transactions.")
	flag.StringVar(&timingsOutput, "o-time", "", "Output timing data to a file corresponding to output command history line-by-line.")
	flag.BoolVar(&omitData, "omit-data", false, "Choose to omit character data transfers in output.")
	flag.BoolVar(&omitCommands, "omit-cmd", false, "Choose to omit instruction transfers in output.")
	flag.Float64Var(&nibbleGap, "nibble-gap", 20e-6, "Max seconds between the two strobes of a transfer. Wider gaps split as bare nibbles; 0 disables.")
	flag.Parse()
	if omitData && omitCommands {
		log.Fatal("cannot omit both data and instruction transfers")
	}

	start := time.Now()
	bd, err := decoderFromFiles(*rs, *en, [4]string{*data[0], *data[1], *data[2], *data[3]})
	if err != nil {
		log.Fatal(err.Error())
	}
	if err := run(bd, *output); err != nil {
		log.Fatal(err.Error())
	}
	log.Println("finished in", time.Since(start))
}

func decoderFromFiles(frs, fen string, fdata [4]string) (*busDecoder, error) {
	bd := &busDecoder{}
	var err error
	bd.RS, err = opendigital(frs)
	if err != nil {
		return nil, err
	}
	bd.E, err = opendigital(fen)
	if err != nil {
		return nil, err
	}
	for i := range fdata {
		bd.Data[i], err = opendigital(fdata[i])
		if err != nil {
			return nil, err
		}
	}
	return bd, nil
}

func opendigital(filename string) (signal, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return signal{}, err
	}
	defer fp.Close()
	df, err := saleae.ReadDigitalFile(fp)
	if err != nil {
		return signal{}, err
	}
	return signalFromFile(df), nil
}

func run(bd *busDecoder, output string) error {
	strobes := bd.strobes()
	slog.Debug("capture scanned", slog.Int("strobes", len(strobes)))
	txs, err := pair(strobes, nibbleGap)
	if err != nil {
		slog.Warn("pairing incomplete", slog.String("err", err.Error()))
	}

	fp, err := os.Create(output)
	if err != nil {
		return err
	}
	defer fp.Close()

	var timings *os.File
	if timingsOutput != "" {
		log.Println("creating timings file", timingsOutput)
		timings, err = os.Create(timingsOutput)
		if err != nil {
			return err
		}
		defer timings.Close()
	}

	for _, x := range txs {
		if (omitData && x.RS) || (omitCommands && !x.RS) {
			continue
		}
		_, err = fmt.Fprintf(fp, "0x%02x  %s\n", x.Byte, x.String())
		if err != nil {
			return err
		}
		if timings != nil {
			fmt.Fprintf(timings, "t=%f\tdata=0x%02x\n", x.Time, x.Byte)
		}
	}
	return nil
}
