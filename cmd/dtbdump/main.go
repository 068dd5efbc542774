// Command dtbdump inspects, patches, and diffs Devicetree Blob files.
package main

func main() {
	execute()
}
