package campus

// corridor describes an undirected walkway; the reverse direction gets a
// generic "go back towards" instruction.
type corridor struct {
	from, to    string
	weight      float64
	instruction string
}

// SampleDataset returns the demonstration campus: two academic blocks joined
// through a crossroad, a canteen and library off the crossroad, and a parking
// lot reachable only from the AB2 exit.
func SampleDataset() Dataset {
	locations := []Location{
		{ID: "AB1_ENTRANCE", Name: "AB1 Entrance", Role: RoleEntrance, Aliases: []string{"ab1 entrance", "block 1 entrance"}},
		{ID: "AB1_303", Name: "AB1_303", Role: RoleRoom},
		{ID: "AB1_310", Name: "AB1_310", Role: RoleRoom},
		{ID: "AB1_LIFT", Name: "AB1 Lift", Role: RoleJunction, Aliases: []string{"ab1 lift", "ab1 elevator"}},
		{ID: "AB1_STAIRS", Name: "AB1 Stairs", Role: RoleJunction, Aliases: []string{"ab1 stairs", "ab1 staircase"}},
		{ID: "AB1_EXIT", Name: "AB1 Exit", Role: RoleEntrance, Aliases: []string{"ab1 exit"}},
		{ID: "CROSSROAD_1", Name: "Crossroad", Role: RoleJunction, Aliases: []string{"crossroad", "crossroads", "lawn"}},
		{ID: "CANTEEN", Name: "Canteen", Role: RoleLandmark, Aliases: []string{"canteen", "cafeteria", "food court", "mess"}},
		{ID: "LIBRARY_ENTRANCE", Name: "Library", Role: RoleLandmark, Aliases: []string{"library", "library entrance"}},
		{ID: "AB2_ENTRANCE", Name: "AB2 Entrance", Role: RoleEntrance, Aliases: []string{"ab2 entrance", "block 2 entrance"}},
		{ID: "AB2_112", Name: "AB2_112", Role: RoleRoom},
		{ID: "AB2_LIFT", Name: "AB2 Lift", Role: RoleJunction, Aliases: []string{"ab2 lift", "ab2 elevator"}},
		{ID: "AB2_EXIT", Name: "AB2 Exit", Role: RoleEntrance, Aliases: []string{"ab2 exit"}},
		{ID: "PARKING_LOT", Name: "Parking Lot", Role: RoleLandmark, Aliases: []string{"parking", "parking lot", "car park"}},
	}

	corridors := []corridor{
		{"AB1_ENTRANCE", "AB1_303", 10, "go straight down the corridor"},
		{"AB1_303", "AB1_310", 5, "continue straight"},
		{"AB1_310", "AB1_LIFT", 8, "turn left towards the lift"},
		{"AB1_310", "AB1_STAIRS", 8, "turn right for the stairs"},
		{"AB1_LIFT", "AB1_EXIT", 12, "exit the building from the main door"},
		{"AB1_STAIRS", "AB1_EXIT", 12, "exit the building from the main door"},
		{"AB1_EXIT", "CROSSROAD_1", 20, "walk across the lawn"},
		{"CROSSROAD_1", "CANTEEN", 15, "take the path on your left"},
		{"CROSSROAD_1", "LIBRARY_ENTRANCE", 15, "take the path on your right"},
		{"CROSSROAD_1", "AB2_ENTRANCE", 25, "walk straight ahead towards the next building"},
		{"AB2_ENTRANCE", "AB2_LIFT", 10, "enter and find the lift on your right"},
		{"AB2_ENTRANCE", "AB2_112", 15, "go straight and take the first right"},
		{"AB2_LIFT", "AB2_112", 5, "exit the lift and turn left"},
		{"AB2_EXIT", "PARKING_LOT", 30, "follow the main path out"},
	}

	edges := make([]Edge, 0, len(corridors)*2)
	for _, c := range corridors {
		edges = append(edges,
			Edge{From: c.from, To: c.to, Weight: c.weight, Instruction: c.instruction},
			Edge{From: c.to, To: c.from, Weight: c.weight, Instruction: "go back towards " + c.from},
		)
	}

	people := []Person{
		{ID: "T001", FirstName: "Aayush", LastName: "Sharma", Department: "Computer Science", Office: "AB1_303", Email: "aayush.sharma@university.edu", Phone: "9876543210"},
		{ID: "T002", FirstName: "Sneha", LastName: "Verma", Department: "Electronics", Office: "AB2_112", Email: "sneha.verma@university.edu", Phone: "8765432109"},
		{ID: "T003", FirstName: "Aarav", LastName: "Gupta", Department: "Mechanical", Office: "AB2_112", Email: "aarav.gupta@university.edu", Phone: "7654321098"},
		{ID: "T004", FirstName: "Sneha", LastName: "Kapoor", Department: "Physics", Office: "AB1_310", Email: "sneha.kapoor@university.edu", Phone: "6543210987"},
	}

	return Dataset{Locations: locations, Edges: edges, People: people}
}
