// Package jewelstore provides a client for a jewelstore server over TCP.
//
// Example:
//
//	client, err := jewelstore.Connect(jewelstore.WithPort(9999))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Insert("catalog", "P1", "Ring", "10.00")
//	rec, err := client.Lookup("catalog", "P1")
//	top, err := client.TopSpender()
package jewelstore
