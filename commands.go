package main

import (
	"fmt"
	"io"
	"strconv"

	"audible-assistant/device"
	"audible-assistant/text_to_speech"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func runDevices(cmd *cobra.Command, args []string) error {
	devices, err := device.Devices()
	if err != nil {
		return err
	}
	defer device.Terminate()

	renderDevices(cmd.OutOrStdout(), devices)

	return nil
}

func renderDevices(w io.Writer, devices []device.Info) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Name", "In", "Out", "Rate", "Default"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)

	for _, d := range devices {
		var def string

		switch {
		case d.DefaultInput && d.DefaultOutput:
			def = "in/out"
		case d.DefaultInput:
			def = "in"
		case d.DefaultOutput:
			def = "out"
		}

		table.Append([]string{
			strconv.Itoa(d.Index),
			d.Name,
			strconv.Itoa(d.MaxInputChannels),
			strconv.Itoa(d.MaxOutputChannels),
			strconv.FormatFloat(d.DefaultSampleRate, 'f', 0, 64),
			def,
		})
	}

	table.Render()
}

func runVoices(cmd *cobra.Command, args []string) {
	renderVoices(cmd.OutOrStdout(), viper.GetString("voice"))
}

func renderVoices(w io.Writer, selected string) {
	for _, v := range text_to_speech.Voices() {
		marker := " "
		if string(v) == selected {
			marker = "*"
		}

		fmt.Fprintf(w, "%s %s\n", marker, v)
	}
}
