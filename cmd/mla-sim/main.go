package main

/*------------------------------------------------------------------
 *
 * Name:        main
 *
 * Purpose:     Monte-Carlo simulation of the tail-biting CRC-aided
 *		list decoder over an AWGN channel.
 *
 *----------------------------------------------------------------*/

import (
	mla "github.com/brucequz/mla/src"
)

func main() {
	mla.MLASimMain()
}
