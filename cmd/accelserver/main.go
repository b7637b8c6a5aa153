package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeongseonghan/dsp-accel/internal/audio"
	"github.com/jeongseonghan/dsp-accel/internal/fec"
	"github.com/jeongseonghan/dsp-accel/internal/fft"
	"github.com/jeongseonghan/dsp-accel/internal/fir"
	"github.com/jeongseonghan/dsp-accel/internal/iir"
	"github.com/jeongseonghan/dsp-accel/internal/server"
	"github.com/jeongseonghan/dsp-accel/internal/transfer"
)

func main() {
	addr := flag.String("addr", "0.0.0.0:8080", "Server address")
	logn := flag.Int("logn", 10, "Transform size exponent (N = 2^logn)")
	saturate := flag.Bool("saturate", false, "Saturate instead of wrapping on output overflow")
	armor := flag.Bool("armor", false, "Reed-Solomon armor on /api/frame exchanges")
	prefilter := flag.Float64("prefilter", 0, "Lowpass prefilter cutoff for capture, as a fraction of Nyquist (0 disables)")
	prefilterIIR := flag.Bool("prefilter-iir", false, "Use the IIR biquad block as the capture prefilter instead of the FIR block")
	listDevices := flag.Bool("list-devices", false, "List capture devices and exit")
	flag.Parse()

	// Initialize PortAudio
	if err := audio.Init(); err != nil {
		log.Fatalf("Failed to initialize PortAudio: %v", err)
	}
	defer audio.Terminate()

	if *listDevices {
		if err := audio.PrintDevices(); err != nil {
			log.Fatalf("Failed to list devices: %v", err)
		}
		return
	}

	core, err := fft.NewCore(fft.Config{LogN: *logn, Saturate: *saturate})
	if err != nil {
		log.Fatalf("Failed to create core: %v", err)
	}
	driver := transfer.NewDriver(core)

	var coder *fec.BlockCoder
	if *armor {
		coder, err = fec.NewBlockCoder()
		if err != nil {
			log.Fatalf("Failed to create frame coder: %v", err)
		}
	}
	session := transfer.NewSession(driver, coder)

	log.Printf("Accelerator core: N=%d format=%s saturate=%v", core.N(), core.Format(), *saturate)

	handlers := server.NewHandlers(driver, session)
	if *prefilter > 0 && *prefilter < 1 {
		var filter server.Prefilter
		var err error
		if *prefilterIIR {
			filter, err = iir.New(core.Format(), iir.Lowpass(*prefilter), *saturate)
		} else {
			filter, err = fir.New(core.Format(), fir.LowpassTaps(63, *prefilter), *saturate)
		}
		if err != nil {
			log.Fatalf("Failed to create prefilter: %v", err)
		}
		handlers.SetPrefilter(filter)
		shape := "63-tap FIR"
		if *prefilterIIR {
			shape = "IIR biquad"
		}
		log.Printf("Capture prefilter: %s lowpass, cutoff %.2f Nyquist", shape, *prefilter)
	}
	srv := server.NewServer(*addr, handlers)

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		audio.Terminate()
		os.Exit(0)
	}()

	// Start server
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
