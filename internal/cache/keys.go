package cache

import "fmt"

func KeyLineStations(lineID int) string {
	return fmt.Sprintf("stations:line:%d", lineID)
}
