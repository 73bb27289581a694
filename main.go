// avalonctl controls Avalon Mini 3 / Nano 3S appliances over the CGMiner API
// and recovers forgotten web-UI passwords from the device's auth digest.
package main

import "github.com/avalontools/avalonctl/cmd"

func main() {
	cmd.Execute()
}
